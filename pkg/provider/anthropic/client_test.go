package anthropic_test

import (
	"context"
	"os"
	"testing"

	// Packages
	anthropic "github.com/mutablelogic/go-agent/pkg/provider/anthropic"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

const testModel = "claude-3-5-haiku-latest"

func testClient(t *testing.T) *anthropic.Client {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("ANTHROPIC_API_KEY not set, skipping")
	}
	client, err := anthropic.New(key)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func Test_anthropic_001(t *testing.T) {
	assert := assert.New(t)
	client := testClient(t)
	assert.Equal("anthropic", client.Name())

	models, err := client.ListModels(context.TODO())
	assert.NoError(err)
	assert.NotEmpty(models)

	model, err := client.GetModel(context.TODO(), testModel)
	assert.NoError(err)
	assert.Equal(testModel, model.Name)
}

func Test_anthropic_002(t *testing.T) {
	assert := assert.New(t)
	client := testClient(t)

	model, err := client.GetModel(context.TODO(), testModel)
	assert.NoError(err)

	var conv schema.Conversation
	message, err := schema.NewMessage(schema.RoleUser, "Reply with the single word: hello")
	assert.NoError(err)
	response, usage, err := client.WithSession(context.TODO(), *model, &conv, message)
	assert.NoError(err)
	assert.NotEmpty(response.Text())
	assert.Greater(usage.Tokens(), uint(0))
	assert.Equal(2, conv.Len())
	t.Log(response)
}

func Test_anthropic_003(t *testing.T) {
	assert := assert.New(t)
	client := testClient(t)

	model, err := client.GetModel(context.TODO(), testModel)
	assert.NoError(err)

	// The model should call the offered tool
	toolkit, err := tool.NewToolkit(
		tool.New("get_weather", "Get the current weather for a city",
			func(_ context.Context, in struct {
				City string `json:"city"`
			}) (any, error) {
				return map[string]any{"city": in.City, "temp": 12}, nil
			}))
	assert.NoError(err)

	message, err := schema.NewMessage(schema.RoleUser, "What is the weather in Berlin? Use the tool.")
	assert.NoError(err)
	response, _, err := client.WithoutSession(context.TODO(), *model, message, tool.WithToolkit(toolkit))
	assert.NoError(err)
	assert.Equal(schema.ResultToolCall, response.Result)
	assert.NotEmpty(response.ToolCalls())
	t.Log(response)
}
