/*
task implements a run loop over a conversational agent. A task repeatedly
generates a model response, dispatches the tool calls it contains and
feeds the results back, until a tool ends the run, the model produces a
plain answer, or a turn limit is reached. Tasks can delegate to sub-tasks,
so agents can be composed into trees.
*/
package task

import (
	"context"
	"encoding/json"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	chat "github.com/mutablelogic/go-agent/pkg/chat"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Task runs an agent in a loop until a result is produced
type Task struct {
	agent    *chat.Agent
	name     string
	maxTurns uint
	subtasks []*Task
}

// Result is the outcome of running a task
type Result struct {
	Content      string            `json:"content,omitempty"`       // Final answer text
	ToolMessages []any             `json:"tool_messages,omitempty"` // Values returned by terminal tools
	Usage        schema.Usage      `json:"usage,omitzero"`          // Tokens used during the run
	Result       schema.ResultType `json:"result"`                  // Why the run ended
	Final        bool              `json:"final,omitempty"`         // Result bypasses parent tasks
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const defaultMaxTurns = 10

var tracer trace.Tracer = otel.Tracer("github.com/mutablelogic/go-agent/pkg/task")

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Opt is a functional option for configuring the task
type Opt func(*Task) error

// New creates a task running the given agent
func New(a *chat.Agent, opts ...Opt) (*Task, error) {
	if a == nil {
		return nil, agent.ErrBadParameter.With("agent is required")
	}
	t := &Task{
		agent:    a,
		maxTurns: defaultMaxTurns,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WithName names the task, used in traces
func WithName(name string) Opt {
	return func(t *Task) error {
		t.name = name
		return nil
	}
}

// WithMaxTurns bounds the number of generation turns per run
func WithMaxTurns(n uint) Opt {
	return func(t *Task) error {
		if n == 0 {
			return agent.ErrBadParameter.With("max turns must be positive")
		}
		t.maxTurns = n
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// AddSubTask adds tasks this task can delegate to. When the model produces
// a plain response, it is offered to each sub-task in order.
func (t *Task) AddSubTask(subtasks ...*Task) {
	t.subtasks = append(t.subtasks, subtasks...)
}

// Run executes the task with the given input and returns its result.
// When the turn limit is reached the conversation is rolled back to its
// state before the run.
func (t *Task) Run(ctx context.Context, input string, opts ...opt.Opt) (*Result, error) {
	ctx, span := tracer.Start(ctx, "task.Run")
	defer span.End()
	if t.name != "" {
		span.SetAttributes(attribute.String("task", t.name))
	}

	conversation := t.agent.Conversation()
	snapshot := conversation.Len()
	usageBefore := conversation.Usage

	response, err := t.agent.LLMResponse(ctx, input, opts...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for turn := uint(0); turn < t.maxTurns; turn++ {
		// Dispatch any tool calls in the response
		handled, err := t.agent.HandleMessage(ctx, response)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if handled != nil {
			// A terminal tool ends the run with its value
			if handled.Terminal != nil || handled.Final {
				return t.result(render(handled.Terminal), []any{handled.Terminal}, schema.ResultStop, handled.Final, usageBefore), nil
			}

			// Feed the tool results back to the model
			response, err = t.agent.LLMResponseWith(ctx, handled.Message, opts...)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			continue
		}

		// No tool calls: offer the response to sub-tasks
		delegated, result, err := t.delegate(ctx, response.Text(), opts...)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if result != nil {
			// A final sub-task result ends the whole tree
			return result, nil
		}
		if delegated != "" {
			response, err = t.agent.LLMResponse(ctx, delegated, opts...)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			continue
		}

		// Plain response: ask the user, or end the run when non-interactive
		user, err := t.agent.UserResponse(ctx, response.Text())
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if user == nil || user.Text() == "" {
			return t.result(response.Text(), nil, schema.ResultStop, false, usageBefore), nil
		}
		response, err = t.agent.LLMResponseWith(ctx, user, opts...)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	// Turn limit reached: roll the conversation back
	conversation.Truncate(snapshot)
	span.SetAttributes(attribute.Bool("max_turns", true))
	return types.Ptr(Result{Result: schema.ResultMaxIterations}), agent.ErrMaxIterations.Withf("task did not complete in %d turns", t.maxTurns)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// delegate offers text to each sub-task in order. Returns the first
// sub-task answer to feed back, or a result that ends this task too.
func (t *Task) delegate(ctx context.Context, text string, opts ...opt.Opt) (string, *Result, error) {
	for _, subtask := range t.subtasks {
		result, err := subtask.Run(ctx, text, opts...)
		if err != nil {
			return "", nil, err
		}
		if result.Final {
			return "", result, nil
		}
		if result.Content != "" {
			return result.Content, nil, nil
		}
	}
	return "", nil, nil
}

// result assembles a run result, attributing usage accumulated since
// the start of the run
func (t *Task) result(content string, toolMessages []any, rt schema.ResultType, final bool, before schema.Usage) *Result {
	after := t.agent.Conversation().Usage
	return types.Ptr(Result{
		Content:      content,
		ToolMessages: toolMessages,
		Usage: schema.Usage{
			InputTokens:  after.InputTokens - before.InputTokens,
			OutputTokens: after.OutputTokens - before.OutputTokens,
		},
		Result: rt,
		Final:  final,
	})
}

// render produces the text form of a terminal tool value
func render(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.RawMessage:
		return string(v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return ""
}
