package task_test

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	chat "github.com/mutablelogic/go-agent/pkg/chat"
	mock "github.com/mutablelogic/go-agent/pkg/provider/mock"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	task "github.com/mutablelogic/go-agent/pkg/task"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	types "github.com/mutablelogic/go-server/pkg/types"
	assert "github.com/stretchr/testify/assert"
)

type companyInfo struct {
	Name     string `json:"name" jsonschema:"the name of the company"`
	Industry string `json:"industry" jsonschema:"the industry the company operates in"`
	CEO      string `json:"ceo" jsonschema:"the chief executive officer"`
}

func toolCallMessage(id, name, input string) *schema.Message {
	return types.Ptr(schema.Message{
		Role: schema.RoleAssistant,
		Content: []schema.ContentBlock{
			{ToolCall: &schema.ToolCall{ID: id, Name: name, Input: json.RawMessage(input)}},
		},
		Result: schema.ResultToolCall,
	})
}

func Test_task_001(t *testing.T) {
	assert := assert.New(t)

	// A plain response from a non-interactive agent ends the run
	client, err := mock.New()
	assert.NoError(err)
	a, err := chat.New(client)
	assert.NoError(err)
	tk, err := task.New(a, task.WithName("echo"))
	assert.NoError(err)

	result, err := tk.Run(context.TODO(), "hello")
	assert.NoError(err)
	assert.Equal("hello", result.Content)
	assert.Equal(schema.ResultStop, result.Result)
	assert.False(result.Final)
	assert.Greater(result.Usage.Tokens(), uint(0))
}

func Test_task_002(t *testing.T) {
	assert := assert.New(t)

	// Structured extraction: the model calls a lookup tool, then submits
	// its final answer through the output tool
	output, err := tool.NewOutputToolFor[companyInfo]()
	assert.NoError(err)
	toolkit, err := tool.NewToolkit(
		tool.New("company_info", "Look up information about a company",
			func(_ context.Context, in struct {
				Name string `json:"name"`
			}) (any, error) {
				return map[string]string{"name": in.Name, "industry": "Technology", "ceo": "Tim Cook"}, nil
			}),
		output,
	)
	assert.NoError(err)

	client, err := mock.New(mock.WithScript(
		toolCallMessage("call_1", "company_info", `{"name":"Apple"}`),
		toolCallMessage("call_2", tool.OutputToolName, `{"name":"Apple","industry":"Technology","ceo":"Tim Cook"}`),
	))
	assert.NoError(err)

	a, err := chat.New(client,
		chat.WithToolkit(toolkit),
		chat.WithSystemPrompt(tool.OutputToolInstruction),
	)
	assert.NoError(err)
	tk, err := task.New(a)
	assert.NoError(err)

	result, err := tk.Run(context.TODO(), "Tell me about Apple")
	assert.NoError(err)
	assert.True(result.Final)
	assert.Len(result.ToolMessages, 1)

	var info companyInfo
	assert.NoError(json.Unmarshal([]byte(result.Content), &info))
	assert.Equal("Apple", info.Name)
	assert.Equal("Technology", info.Industry)
	assert.Equal("Tim Cook", info.CEO)
}

func Test_task_003(t *testing.T) {
	assert := assert.New(t)

	// A tool loop that never terminates hits the turn limit and the
	// conversation is rolled back
	toolkit, err := tool.NewToolkit(
		tool.New("echo", "Echo the given text",
			func(_ context.Context, in struct {
				Text string `json:"text"`
			}) (any, error) {
				return in.Text, nil
			}))
	assert.NoError(err)

	client, err := mock.New(
		mock.WithRule(mock.Rule{
			Match: "loop",
			Calls: []schema.ToolCall{{ID: "call_1", Name: "echo", Input: json.RawMessage(`{"text":"loop"}`)}},
		}))
	assert.NoError(err)

	a, err := chat.New(client, chat.WithToolkit(toolkit))
	assert.NoError(err)
	tk, err := task.New(a, task.WithMaxTurns(3))
	assert.NoError(err)

	result, err := tk.Run(context.TODO(), "loop")
	assert.ErrorIs(err, agent.ErrMaxIterations)
	assert.Equal(schema.ResultMaxIterations, result.Result)
	assert.Equal(0, a.Conversation().Len())
}

func Test_task_004(t *testing.T) {
	assert := assert.New(t)

	// A final result from a sub-task ends the parent run too
	subToolkit, err := tool.NewToolkit(
		tool.New("finish", "Finish with a final answer",
			func(_ context.Context, in struct {
				Answer string `json:"answer"`
			}) (any, error) {
				return tool.Final(in.Answer), nil
			}))
	assert.NoError(err)

	finisher, err := schema.NewMessage(schema.RoleAssistant, `{"request": "finish", "answer": "done"}`)
	assert.NoError(err)
	subClient, err := mock.New(mock.WithScript(finisher))
	assert.NoError(err)
	subAgent, err := chat.New(subClient, chat.WithToolkit(subToolkit))
	assert.NoError(err)
	subTask, err := task.New(subAgent, task.WithName("finisher"))
	assert.NoError(err)

	client, err := mock.New()
	assert.NoError(err)
	a, err := chat.New(client)
	assert.NoError(err)
	parent, err := task.New(a, task.WithName("parent"))
	assert.NoError(err)
	parent.AddSubTask(subTask)

	result, err := parent.Run(context.TODO(), "please delegate this")
	assert.NoError(err)
	assert.True(result.Final)
	assert.Equal("done", result.Content)
}

func Test_task_005(t *testing.T) {
	assert := assert.New(t)

	// An interactive agent ends the run when the user has nothing to add
	client, err := mock.New(
		mock.WithRule(mock.Rule{Match: "question", Reply: "The answer is 42"}),
	)
	assert.NoError(err)

	inputs := []string{"another question", ""}
	a, err := chat.New(client, chat.WithUserInput(func(_ context.Context, _ string) (string, error) {
		next := inputs[0]
		inputs = inputs[1:]
		return next, nil
	}))
	assert.NoError(err)
	tk, err := task.New(a)
	assert.NoError(err)

	result, err := tk.Run(context.TODO(), "a question")
	assert.NoError(err)
	assert.Equal("The answer is 42", result.Content)
	assert.Equal(4, a.Conversation().Len())
}
