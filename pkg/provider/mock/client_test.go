package mock_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	// Packages
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	mock "github.com/mutablelogic/go-agent/pkg/provider/mock"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	assert "github.com/stretchr/testify/assert"
)

func Test_mock_001(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New()
	assert.NoError(err)
	assert.Equal("mock", client.Name())

	models, err := client.ListModels(context.TODO())
	assert.NoError(err)
	assert.Len(models, 1)

	model, err := client.GetModel(context.TODO(), models[0].Name)
	assert.NoError(err)
	assert.Equal(models[0].Name, model.Name)

	_, err = client.GetModel(context.TODO(), "no-such-model")
	assert.Error(err)
}

func Test_mock_002(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New(
		mock.WithRule(mock.Rule{Match: "capital of France", Reply: "Paris"}),
	)
	assert.NoError(err)

	model, err := client.GetModel(context.TODO(), "mock")
	assert.NoError(err)

	// Rule match
	message, err := schema.NewMessage(schema.RoleUser, "What is the capital of France?")
	assert.NoError(err)
	response, usage, err := client.WithoutSession(context.TODO(), types.Value(model), message)
	assert.NoError(err)
	assert.Equal("Paris", response.Text())
	assert.Greater(usage.Tokens(), uint(0))

	// Echo fallback
	message, err = schema.NewMessage(schema.RoleUser, "Anything else")
	assert.NoError(err)
	response, _, err = client.WithoutSession(context.TODO(), types.Value(model), message)
	assert.NoError(err)
	assert.Equal("Anything else", response.Text())
}

func Test_mock_003(t *testing.T) {
	assert := assert.New(t)

	// Scripted responses are consumed in order, before rules
	first, err := schema.NewMessage(schema.RoleAssistant, "first")
	assert.NoError(err)
	second, err := schema.NewMessage(schema.RoleAssistant, "second")
	assert.NoError(err)

	client, err := mock.New(mock.WithScript(first, second))
	assert.NoError(err)
	model, err := client.GetModel(context.TODO(), "mock")
	assert.NoError(err)

	var conv schema.Conversation
	message, err := schema.NewMessage(schema.RoleUser, "hello")
	assert.NoError(err)

	response, _, err := client.WithSession(context.TODO(), types.Value(model), &conv, message)
	assert.NoError(err)
	assert.Equal("first", response.Text())
	assert.Equal(2, conv.Len())

	message, err = schema.NewMessage(schema.RoleUser, "again")
	assert.NoError(err)
	response, _, err = client.WithSession(context.TODO(), types.Value(model), &conv, message)
	assert.NoError(err)
	assert.Equal("second", response.Text())
	assert.Equal(4, conv.Len())
}

func Test_mock_004(t *testing.T) {
	assert := assert.New(t)

	// Scripted tool calls mark the response as a tool call result
	client, err := mock.New(
		mock.WithRule(mock.Rule{
			Match: "weather",
			Calls: []schema.ToolCall{
				{ID: "call_1", Name: "get_weather", Input: json.RawMessage(`{"city":"Berlin"}`)},
			},
		}),
	)
	assert.NoError(err)
	model, err := client.GetModel(context.TODO(), "mock")
	assert.NoError(err)

	message, err := schema.NewMessage(schema.RoleUser, "What is the weather in Berlin?")
	assert.NoError(err)
	response, _, err := client.WithoutSession(context.TODO(), types.Value(model), message)
	assert.NoError(err)
	assert.Equal(schema.ResultToolCall, response.Result)
	assert.Len(response.ToolCalls(), 1)
	assert.Equal("get_weather", response.ToolCalls()[0].Name)
}

func Test_mock_005(t *testing.T) {
	assert := assert.New(t)

	client, err := mock.New(
		mock.WithRule(mock.Rule{Match: "story", Reply: "Once upon a time there was a fox"}),
	)
	assert.NoError(err)
	model, err := client.GetModel(context.TODO(), "mock")
	assert.NoError(err)

	// Streaming delivers the response in chunks which concatenate to the text
	var chunks []string
	message, err := schema.NewMessage(schema.RoleUser, "Tell me a story")
	assert.NoError(err)
	response, _, err := client.WithoutSession(context.TODO(), types.Value(model), message,
		opt.WithStream(func(role, text string) {
			chunks = append(chunks, text)
		}))
	assert.NoError(err)
	assert.Greater(len(chunks), 1)
	assert.Equal(response.Text(), strings.Join(chunks, ""))
}
