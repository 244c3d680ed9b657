package tool_test

import (
	"testing"

	// Packages
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

func Test_parse_001(t *testing.T) {
	assert := assert.New(t)

	// A request object embedded in surrounding prose
	calls := tool.ExtractCalls(`Let me check that for you. {"request": "get_weather", "city": "Berlin"} One moment.`)
	assert.Len(calls, 1)
	assert.Equal("get_weather", calls[0].Name)
	assert.JSONEq(`{"city":"Berlin"}`, string(calls[0].Input))
}

func Test_parse_002(t *testing.T) {
	assert := assert.New(t)

	// Plain text, objects without a request key, and invalid JSON yield no calls
	assert.Empty(tool.ExtractCalls("It is sunny in Berlin today."))
	assert.Empty(tool.ExtractCalls(`{"city": "Berlin"}`))
	assert.Empty(tool.ExtractCalls(`{"request": get_weather}`))
	assert.Empty(tool.ExtractCalls(`{"request": 42}`))
}

func Test_parse_003(t *testing.T) {
	assert := assert.New(t)

	// Multiple objects, nested braces and braces inside strings
	calls := tool.ExtractCalls(`First {"request": "a", "query": "a {brace} inside"} then {"request": "b", "nested": {"x": 1}}`)
	assert.Len(calls, 2)
	assert.Equal("a", calls[0].Name)
	assert.Equal("b", calls[1].Name)
	assert.JSONEq(`{"nested":{"x":1}}`, string(calls[1].Input))
}

func Test_parse_004(t *testing.T) {
	assert := assert.New(t)

	// Instructions include each enabled tool with schema and examples
	tk, err := tool.NewToolkit(weatherTool())
	assert.NoError(err)

	instructions := tk.Instructions()
	assert.Contains(instructions, "get_weather")
	assert.Contains(instructions, tool.RequestKey)
	assert.Contains(instructions, "Berlin")

	// Disabled tools are not described
	assert.NoError(tk.DisableUse("get_weather"))
	assert.Empty(tk.Instructions())
}

func Test_parse_005(t *testing.T) {
	assert := assert.New(t)

	// Single-quoted objects are tolerated
	calls := tool.ExtractCalls(`I will use the tool: {'request': 'find_entrypoint'}`)
	assert.Len(calls, 1)
	assert.Equal("find_entrypoint", calls[0].Name)
	assert.JSONEq(`{}`, string(calls[0].Input))

	// Mixed quoting and escaped quotes within values
	calls = tool.ExtractCalls(`{'request': 'get_weather', 'city': "Berlin", 'note': 'it\'s cold'}`)
	assert.Len(calls, 1)
	assert.Equal("get_weather", calls[0].Name)
	assert.JSONEq(`{"city":"Berlin","note":"it's cold"}`, string(calls[0].Input))
}
