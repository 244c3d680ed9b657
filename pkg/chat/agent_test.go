package chat_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	// Packages
	cache "github.com/mutablelogic/go-agent/pkg/cache"
	chat "github.com/mutablelogic/go-agent/pkg/chat"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	mock "github.com/mutablelogic/go-agent/pkg/provider/mock"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

// recordingClient wraps the mock provider, counting generation calls and
// keeping the options of the most recent one
type recordingClient struct {
	*mock.Client
	calls int
	opts  []opt.Opt
}

func (c *recordingClient) WithSession(ctx context.Context, model schema.Model, session *schema.Conversation, message *schema.Message, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	c.calls++
	c.opts = opts
	return c.Client.WithSession(ctx, model, session, message, opts...)
}

type countryInput struct {
	Country string `json:"country" jsonschema:"the name of the country"`
}

func capitalTool(calls *int) tool.Tool {
	return tool.New("capital_city", "Get the capital city of a country",
		func(_ context.Context, in countryInput) (any, error) {
			if calls != nil {
				*calls++
			}
			return map[string]string{"capital": "Paris"}, nil
		})
}

func Test_chat_001(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New(
		mock.WithRule(mock.Rule{Match: "capital of France", Reply: "Paris"}),
	)
	assert.NoError(err)

	agent, err := chat.New(client, chat.WithSystemPrompt("You are a helpful assistant"))
	assert.NoError(err)

	// Round trip appends both messages to the conversation
	response, err := agent.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal("Paris", response.Text())
	assert.Equal(2, agent.Conversation().Len())
	assert.Equal(schema.RoleAssistant, agent.Conversation().Last().Role)
}

func Test_chat_002(t *testing.T) {
	assert := assert.New(t)

	var calls int
	toolkit, err := tool.NewToolkit(capitalTool(&calls))
	assert.NoError(err)

	client, err := mock.New()
	assert.NoError(err)
	agent, err := chat.New(client, chat.WithToolkit(toolkit))
	assert.NoError(err)

	// An enabled tool is handled, whether called natively or in text
	assert.Contains(agent.HandledTools(), "capital_city")

	message := &schema.Message{
		Role: schema.RoleAssistant,
		Content: []schema.ContentBlock{
			{ToolCall: &schema.ToolCall{ID: "call_1", Name: "capital_city", Input: json.RawMessage(`{"country":"France"}`)}},
		},
	}
	handled, err := agent.HandleMessage(context.TODO(), message)
	assert.NoError(err)
	assert.NotNil(handled)
	assert.Equal(1, calls)
	assert.Len(handled.Message.ToolResults(), 1)
	assert.Nil(handled.Terminal)

	// The same call embedded in message text is also handled
	text, err := schema.NewMessage(schema.RoleAssistant, `{"request": "capital_city", "country": "France"}`)
	assert.NoError(err)
	handled, err = agent.HandleMessage(context.TODO(), text)
	assert.NoError(err)
	assert.NotNil(handled)
	assert.Equal(2, calls)
}

func Test_chat_003(t *testing.T) {
	assert := assert.New(t)

	var calls int
	toolkit, err := tool.NewToolkit(capitalTool(&calls))
	assert.NoError(err)

	client, err := mock.New()
	assert.NoError(err)
	agent, err := chat.New(client, chat.WithToolkit(toolkit))
	assert.NoError(err)

	// A disabled tool is not handled and the call yields nil
	assert.NoError(agent.DisableTool("capital_city"))
	assert.Empty(agent.HandledTools())

	message := &schema.Message{
		Role: schema.RoleAssistant,
		Content: []schema.ContentBlock{
			{ToolCall: &schema.ToolCall{ID: "call_1", Name: "capital_city", Input: json.RawMessage(`{"country":"France"}`)}},
		},
	}
	handled, err := agent.HandleMessage(context.TODO(), message)
	assert.NoError(err)
	assert.Nil(handled)
	assert.Equal(0, calls)

	// Re-enabling restores handling
	assert.NoError(agent.EnableTool("capital_city"))
	handled, err = agent.HandleMessage(context.TODO(), message)
	assert.NoError(err)
	assert.NotNil(handled)
	assert.Equal(1, calls)

	// Unknown tool calls are never handled
	unknown, err := schema.NewMessage(schema.RoleAssistant, `{"request": "no_such_tool"}`)
	assert.NoError(err)
	handled, err = agent.HandleMessage(context.TODO(), unknown)
	assert.NoError(err)
	assert.Nil(handled)
}

func Test_chat_004(t *testing.T) {
	assert := assert.New(t)

	// A terminal tool result ends the run
	toolkit, err := tool.NewToolkit(
		tool.New("finish", "Finish with a final answer",
			func(_ context.Context, in struct {
				Answer string `json:"answer"`
			}) (any, error) {
				return tool.Final(in.Answer), nil
			}))
	assert.NoError(err)

	client, err := mock.New()
	assert.NoError(err)
	agent, err := chat.New(client, chat.WithToolkit(toolkit))
	assert.NoError(err)

	message, err := schema.NewMessage(schema.RoleAssistant, `{"request": "finish", "answer": "42"}`)
	assert.NoError(err)
	handled, err := agent.HandleMessage(context.TODO(), message)
	assert.NoError(err)
	assert.NotNil(handled)
	assert.True(handled.Final)
	assert.Equal("42", handled.Terminal)
}

func Test_chat_005(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New(
		mock.WithRule(mock.Rule{Match: "capital of France", Reply: "Paris"}),
	)
	assert.NoError(err)

	// With a cache attached, an identical conversation is served without
	// calling the provider again
	store := cache.NewMemoryCache()
	first, err := chat.New(client, chat.WithCache(store, time.Minute))
	assert.NoError(err)
	response, err := first.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal("Paris", response.Text())

	second, err := chat.New(client, chat.WithCache(store, time.Minute))
	assert.NoError(err)
	response, err = second.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal("Paris", response.Text())
	assert.Equal(2, second.Conversation().Len())
}

func Test_chat_006(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New()
	assert.NoError(err)

	// Non-interactive agents return nil user responses
	agent, err := chat.New(client)
	assert.NoError(err)
	response, err := agent.UserResponse(context.TODO(), "> ")
	assert.NoError(err)
	assert.Nil(response)

	// Interactive agents collect input through the supplied function
	agent, err = chat.New(client, chat.WithUserInput(func(_ context.Context, _ string) (string, error) {
		return "hello", nil
	}))
	assert.NoError(err)
	response, err = agent.UserResponse(context.TODO(), "> ")
	assert.NoError(err)
	assert.Equal("hello", response.Text())
}

func Test_chat_007(t *testing.T) {
	assert := assert.New(t)

	toolkit, err := tool.NewToolkit(capitalTool(nil))
	assert.NoError(err)

	inner, err := mock.New()
	assert.NoError(err)
	client := &recordingClient{Client: inner}

	agent, err := chat.New(client, chat.WithSystemPrompt("You are a helpful assistant"), chat.WithToolkit(toolkit))
	assert.NoError(err)
	_, err = agent.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)

	// The system prompt sent to the provider combines the configured
	// prompt with the toolkit instructions
	options, err := opt.Apply(client.opts...)
	assert.NoError(err)
	prompt := options.GetString(opt.SystemPromptKey)
	assert.Contains(prompt, "You are a helpful assistant")
	assert.Contains(prompt, "capital_city")
	assert.Contains(prompt, tool.RequestKey)
}

func Test_chat_008(t *testing.T) {
	assert := assert.New(t)

	inner, err := mock.New(
		mock.WithRule(mock.Rule{Match: "capital of France", Reply: "Paris"}),
	)
	assert.NoError(err)
	client := &recordingClient{Client: inner}
	store := cache.NewMemoryCache()

	// An identical repeat is served from the cache
	first, err := chat.New(client, chat.WithCache(store, time.Minute))
	assert.NoError(err)
	_, err = first.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal(1, client.calls)

	second, err := chat.New(client, chat.WithCache(store, time.Minute))
	assert.NoError(err)
	_, err = second.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal(1, client.calls)

	// A different temperature misses the cache
	third, err := chat.New(client, chat.WithCache(store, time.Minute))
	assert.NoError(err)
	_, err = third.LLMResponse(context.TODO(), "What is the capital of France?", opt.WithTemperature(0.2))
	assert.NoError(err)
	assert.Equal(2, client.calls)

	// A different set of offered tools misses the cache
	toolkit, err := tool.NewToolkit(capitalTool(nil))
	assert.NoError(err)
	fourth, err := chat.New(client, chat.WithCache(store, time.Minute), chat.WithToolkit(toolkit))
	assert.NoError(err)
	_, err = fourth.LLMResponse(context.TODO(), "What is the capital of France?")
	assert.NoError(err)
	assert.Equal(3, client.calls)
}
