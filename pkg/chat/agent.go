/*
chat implements a conversational agent which combines a provider client,
a toolkit and a conversation history. The agent generates model responses,
dispatches tool calls found in those responses, and optionally collects
user input, caching generation results when a cache is attached.
*/
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	cache "github.com/mutablelogic/go-agent/pkg/cache"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	types "github.com/mutablelogic/go-server/pkg/types"
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// UserInputFunc collects a response from the user. A nil function makes
// the agent non-interactive.
type UserInputFunc func(ctx context.Context, prompt string) (string, error)

// Agent is a conversational agent bound to one provider client
type Agent struct {
	client   agent.Client
	meta     schema.GeneratorMeta
	toolkit  *tool.Toolkit
	cache    cache.Cache
	cacheTTL time.Duration
	userFn   UserInputFunc

	conversation schema.Conversation
	model        *schema.Model
}

// Handled is the outcome of dispatching the tool calls in a message
type Handled struct {
	Message  *schema.Message // Tool results, to send back to the model
	Terminal any             // Non-nil when a tool ended the run
	Final    bool            // Terminal result bypasses parent tasks
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var tracer trace.Tracer = otel.Tracer("github.com/mutablelogic/go-agent/pkg/chat")

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Opt is a functional option for configuring the agent
type Opt func(*Agent) error

// New creates a new agent for the given client
func New(client agent.Client, opts ...Opt) (*Agent, error) {
	if client == nil {
		return nil, agent.ErrBadParameter.With("client is required")
	}
	if _, ok := client.(agent.Generator); !ok {
		return nil, agent.ErrBadParameter.Withf("client %q cannot generate responses", client.Name())
	}

	a := &Agent{
		client: client,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	// An empty toolkit when none was supplied
	if a.toolkit == nil {
		toolkit, err := tool.NewToolkit()
		if err != nil {
			return nil, err
		}
		a.toolkit = toolkit
	}

	return a, nil
}

// WithMeta sets the generation parameters for the agent
func WithMeta(meta schema.GeneratorMeta) Opt {
	return func(a *Agent) error {
		a.meta = meta
		return nil
	}
}

// WithModel sets the model used for generation
func WithModel(name string) Opt {
	return func(a *Agent) error {
		a.meta.Model = name
		return nil
	}
}

// WithSystemPrompt sets the system prompt for the agent
func WithSystemPrompt(prompt string) Opt {
	return func(a *Agent) error {
		a.meta.SystemPrompt = prompt
		return nil
	}
}

// WithToolkit sets the toolkit whose tools the agent offers and dispatches
func WithToolkit(toolkit *tool.Toolkit) Opt {
	return func(a *Agent) error {
		a.toolkit = toolkit
		return nil
	}
}

// WithCache caches generation results with the given expiry
func WithCache(c cache.Cache, ttl time.Duration) Opt {
	return func(a *Agent) error {
		a.cache = c
		a.cacheTTL = ttl
		return nil
	}
}

// WithUserInput makes the agent interactive using the given function
func WithUserInput(fn UserInputFunc) Opt {
	return func(a *Agent) error {
		a.userFn = fn
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Toolkit returns the agent's toolkit
func (a *Agent) Toolkit() *tool.Toolkit {
	return a.toolkit
}

// Conversation returns the agent's conversation history
func (a *Agent) Conversation() *schema.Conversation {
	return &a.conversation
}

// Meta returns the agent's generation parameters
func (a *Agent) Meta() schema.GeneratorMeta {
	return a.meta
}

// EnableTool enables a registered tool for both use and handling
func (a *Agent) EnableTool(name string) error {
	if err := a.toolkit.EnableUse(name); err != nil {
		return err
	}
	return a.toolkit.EnableHandle(name)
}

// DisableTool disables a registered tool for both use and handling
func (a *Agent) DisableTool(name string) error {
	if err := a.toolkit.DisableUse(name); err != nil {
		return err
	}
	return a.toolkit.DisableHandle(name)
}

// HandledTools returns the names of tools whose calls the agent dispatches
func (a *Agent) HandledTools() []string {
	var names []string
	for _, t := range a.toolkit.Tools() {
		if a.toolkit.HandleEnabled(t.Name()) {
			names = append(names, t.Name())
		}
	}
	return names
}

// LLMResponse sends a user message to the model and appends both the
// message and the response to the conversation. When a cache is attached
// and holds a response for an identical conversation, the provider is
// not called.
func (a *Agent) LLMResponse(ctx context.Context, text string, opts ...opt.Opt) (*schema.Message, error) {
	message, err := schema.NewMessage(schema.RoleUser, text)
	if err != nil {
		return nil, err
	}
	return a.LLMResponseWith(ctx, message, opts...)
}

// LLMResponseWith sends a prepared message to the model
func (a *Agent) LLMResponseWith(ctx context.Context, message *schema.Message, opts ...opt.Opt) (*schema.Message, error) {
	generator := a.client.(agent.Generator)

	// Resolve the model
	model, err := a.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	// Start a trace span for the generation
	ctx, span := tracer.Start(ctx, "chat.LLMResponse")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", a.client.Name()),
		attribute.String("model", model.Name),
	)

	// Generation options from the agent's metadata
	genOpts := a.generateOpts(opts)
	options, err := opt.Apply(genOpts...)
	if err != nil {
		return nil, err
	}

	// Serve from the cache when possible. The key covers everything which
	// shapes the request, so any change in options, prompt or offered tools
	// misses the cache.
	key := cache.Key(a.client.Name(), model.Name, options.Fingerprint(), a.toolkit.Fingerprint(), a.conversation.Messages, message)
	if a.cache != nil {
		if data, err := a.cache.Get(ctx, key); err != nil {
			return nil, err
		} else if data != nil {
			var response schema.Message
			if err := json.Unmarshal(data, &response); err == nil {
				span.SetAttributes(attribute.Bool("cached", true))
				a.conversation.Append(message)
				a.conversation.Append(&response)
				return &response, nil
			}
			// Unreadable entry, fall through to the provider
		}
	}

	// Call the provider, which appends to the conversation
	response, usage, err := generator.WithSession(ctx, types.Value(model), &a.conversation, message, genOpts...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if usage != nil {
		span.SetAttributes(
			attribute.Int("tokens.input", int(usage.InputTokens)),
			attribute.Int("tokens.output", int(usage.OutputTokens)),
		)
	}

	// Store in the cache
	if a.cache != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := a.cache.Set(ctx, key, data, a.cacheTTL); err != nil {
				return nil, err
			}
		}
	}

	return response, nil
}

// HandleMessage dispatches the tool calls in a message, both native calls
// and calls embedded in the message text as JSON. Returns nil when the
// message contains no calls the agent handles.
func (a *Agent) HandleMessage(ctx context.Context, message *schema.Message) (*Handled, error) {
	if message == nil {
		return nil, agent.ErrBadParameter.With("message is required")
	}

	// Gather native calls, then calls embedded in text
	calls := message.ToolCalls()
	calls = append(calls, tool.ExtractCalls(message.Text())...)

	// Dispatch calls the toolkit handles
	var blocks []schema.ContentBlock
	handled := new(Handled)
	for _, call := range calls {
		if !a.toolkit.HandleEnabled(call.Name) {
			continue
		}
		out, err := a.toolkit.Run(ctx, call.Name, call.Input)
		if err != nil {
			blocks = append(blocks, schema.NewToolError(call.ID, call.Name, err))
			continue
		}
		if value, ok := tool.IsFinal(out); ok {
			handled.Terminal = value
			handled.Final = true
			blocks = append(blocks, schema.NewToolResult(call.ID, call.Name, value))
			break
		}
		if value, ok := tool.IsDone(out); ok {
			handled.Terminal = value
			blocks = append(blocks, schema.NewToolResult(call.ID, call.Name, value))
			break
		}
		blocks = append(blocks, schema.NewToolResult(call.ID, call.Name, out))
	}

	// No handled calls
	if len(blocks) == 0 {
		return nil, nil
	}

	handled.Message = types.Ptr(schema.Message{
		Role:    schema.RoleUser,
		Content: blocks,
	})
	return handled, nil
}

// UserResponse collects input from the user, or returns nil when the
// agent is non-interactive
func (a *Agent) UserResponse(ctx context.Context, prompt string) (*schema.Message, error) {
	if a.userFn == nil {
		return nil, nil
	}
	text, err := a.userFn(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return schema.NewMessage(schema.RoleUser, text)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// resolveModel fetches and pins the model named in the agent's metadata,
// or the provider's first model when unnamed
func (a *Agent) resolveModel(ctx context.Context) (*schema.Model, error) {
	if a.model != nil {
		return a.model, nil
	}
	if a.meta.Model != "" {
		model, err := a.client.GetModel(ctx, a.meta.Model)
		if err != nil {
			return nil, err
		}
		a.model = model
		return model, nil
	}
	models, err := a.client.ListModels(ctx)
	if err != nil {
		return nil, err
	} else if len(models) == 0 {
		return nil, agent.ErrNotFound.Withf("no models for provider %q", a.client.Name())
	}
	a.model = types.Ptr(models[0])
	return a.model, nil
}

// generateOpts builds provider options from the agent's metadata and
// toolkit, with caller options appended last so they take precedence.
// The effective system prompt is the configured prompt followed by the
// toolkit's usage instructions for any enabled tools.
func (a *Agent) generateOpts(opts []opt.Opt) []opt.Opt {
	var result []opt.Opt
	if prompt := a.systemPrompt(); prompt != "" {
		result = append(result, opt.WithSystemPrompt(prompt))
	}
	if a.meta.Temperature != nil {
		result = append(result, opt.WithTemperature(*a.meta.Temperature))
	}
	if a.meta.MaxTokens > 0 {
		result = append(result, opt.WithMaxTokens(a.meta.MaxTokens))
	}
	if len(a.toolkit.Tools()) > 0 {
		result = append(result, tool.WithToolkit(a.toolkit))
	}
	return append(result, opts...)
}

// systemPrompt joins the configured system prompt with the toolkit's
// tool instructions
func (a *Agent) systemPrompt() string {
	parts := make([]string, 0, 2)
	if a.meta.SystemPrompt != "" {
		parts = append(parts, a.meta.SystemPrompt)
	}
	if instructions := a.toolkit.Instructions(); instructions != "" {
		parts = append(parts, instructions)
	}
	return strings.Join(parts, "\n\n")
}
