package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

type cityInput struct {
	City string `json:"city" jsonschema:"the name of the city"`
}

func weatherTool() tool.Tool {
	return tool.New("get_weather", "Get the current weather for a city",
		func(_ context.Context, in cityInput) (any, error) {
			return map[string]any{"city": in.City, "temp": 12}, nil
		},
		tool.Example{Description: "look up the weather", Input: cityInput{City: "Berlin"}},
	)
}

func Test_tool_001(t *testing.T) {
	assert := assert.New(t)

	// Typed function tool carries name, description and a derived schema
	w := weatherTool()
	assert.Equal("get_weather", w.Name())
	assert.NotEmpty(w.Description())

	s, err := w.Schema()
	assert.NoError(err)
	assert.NotNil(s)

	out, err := w.Run(context.TODO(), json.RawMessage(`{"city":"Berlin"}`))
	assert.NoError(err)
	assert.Equal("Berlin", out.(map[string]any)["city"])
}

func Test_tool_002(t *testing.T) {
	assert := assert.New(t)

	// Invalid, duplicate and reserved names are rejected
	tk, err := tool.NewToolkit(weatherTool())
	assert.NoError(err)

	assert.Error(tk.Register(weatherTool()))
	assert.Error(tk.Register(tool.New("not a name", "", func(_ context.Context, _ cityInput) (any, error) { return nil, nil })))
	assert.Error(tk.Register(tool.New(tool.OutputToolName, "", func(_ context.Context, _ cityInput) (any, error) { return nil, nil })))

	// The output tool itself may use the reserved name
	assert.NoError(tk.Register(tool.NewOutputTool(&jsonschema.Schema{Type: "object"})))
}

func Test_tool_003(t *testing.T) {
	assert := assert.New(t)

	tk, err := tool.NewToolkit(weatherTool())
	assert.NoError(err)

	// Registered tools are enabled for use and handling
	assert.True(tk.UseEnabled("get_weather"))
	assert.True(tk.HandleEnabled("get_weather"))
	assert.Len(tk.Tools(), 1)

	// Disabling use hides the tool from the model but keeps dispatch
	assert.NoError(tk.DisableUse("get_weather"))
	assert.Len(tk.Tools(), 0)
	assert.True(tk.HandleEnabled("get_weather"))

	// Disabling handling makes calls behave as if unregistered
	assert.NoError(tk.DisableHandle("get_weather"))
	_, err = tk.Run(context.TODO(), "get_weather", json.RawMessage(`{"city":"Berlin"}`))
	assert.Error(err)

	// Re-enabling restores both switches
	assert.NoError(tk.EnableUse("get_weather"))
	assert.NoError(tk.EnableHandle("get_weather"))
	assert.Len(tk.Tools(), 1)

	out, err := tk.Run(context.TODO(), "get_weather", json.RawMessage(`{"city":"Berlin"}`))
	assert.NoError(err)
	assert.NotNil(out)

	// Unknown tools cannot be toggled
	assert.Error(tk.EnableUse("no_such_tool"))
}

func Test_tool_004(t *testing.T) {
	assert := assert.New(t)

	tk, err := tool.NewToolkit(weatherTool())
	assert.NoError(err)

	// Input is validated against the schema before the tool runs
	_, err = tk.Run(context.TODO(), "get_weather", json.RawMessage(`{"city":42}`))
	assert.Error(err)

	// Unknown tool names are not found
	_, err = tk.Run(context.TODO(), "no_such_tool", nil)
	assert.ErrorContains(err, "not found")
}

func Test_tool_005(t *testing.T) {
	assert := assert.New(t)

	tk, err := tool.NewToolkit(weatherTool())
	assert.NoError(err)

	// Concurrent calls produce one result block per call, in order
	calls := []schema.ToolCall{
		{ID: "call_1", Name: "get_weather", Input: json.RawMessage(`{"city":"Berlin"}`)},
		{ID: "call_2", Name: "no_such_tool", Input: json.RawMessage(`{}`)},
	}
	results, err := tk.RunCalls(context.TODO(), calls)
	assert.NoError(err)
	assert.Len(results, 2)
	assert.False(results[0].ToolResult.IsError)
	assert.Equal("call_1", results[0].ToolResult.ID)
	assert.True(results[1].ToolResult.IsError)
	assert.Equal("call_2", results[1].ToolResult.ID)
}

func Test_tool_006(t *testing.T) {
	assert := assert.New(t)

	// Terminal results
	final, ok := tool.IsFinal(tool.Final("answer"))
	assert.True(ok)
	assert.Equal("answer", final)

	done, ok := tool.IsDone(tool.Done(42))
	assert.True(ok)
	assert.Equal(42, done)

	_, ok = tool.IsFinal(tool.Done(42))
	assert.False(ok)
	assert.True(tool.IsTerminal(tool.Final(nil)))
	assert.False(tool.IsTerminal("plain result"))
}
