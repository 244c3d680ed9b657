package tool

import (
	"context"
	"encoding/json"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	agent "github.com/mutablelogic/go-agent"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Tool is an interface for a tool with a name, description and JSON schema
type Tool interface {
	// Return the name of the tool
	Name() string

	// Return the description of the tool
	Description() string

	// Return the JSON schema for the tool input
	Schema() (*jsonschema.Schema, error)

	// Run the tool with the given input as JSON (may be nil)
	Run(ctx context.Context, input json.RawMessage) (any, error)
}

// Example is a worked example of a tool invocation, used to build few-shot
// instructions for models without native tool calling.
type Example struct {
	Description string // When the tool should be used this way
	Input       any    // The tool input, marshalled to JSON in instructions
}

// ExampleProvider is implemented by tools that carry worked examples
type ExampleProvider interface {
	Examples() []Example
}

// funcTool adapts a typed Go function into a Tool, deriving the input
// schema from the function's parameter type.
type funcTool[T any] struct {
	name        string
	description string
	fn          func(context.Context, T) (any, error)
	examples    []Example
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a tool from a typed function. The input schema is derived
// from the type parameter by reflection. Optional examples are included
// in tool instructions.
func New[T any](name, description string, fn func(context.Context, T) (any, error), examples ...Example) Tool {
	return &funcTool[T]{
		name:        name,
		description: description,
		fn:          fn,
		examples:    examples,
	}
}

///////////////////////////////////////////////////////////////////////////////
// TOOL INTERFACE

func (t *funcTool[T]) Name() string {
	return t.name
}

func (t *funcTool[T]) Description() string {
	return t.description
}

func (t *funcTool[T]) Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

func (t *funcTool[T]) Run(ctx context.Context, input json.RawMessage) (any, error) {
	var in T
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, agent.ErrBadParameter.Withf("failed to unmarshal input: %v", err)
		}
	}
	return t.fn(ctx, in)
}

func (t *funcTool[T]) Examples() []Example {
	return t.examples
}
