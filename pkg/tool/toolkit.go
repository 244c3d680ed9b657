package tool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Toolkit is a collection of tools with unique names. Each tool has two
// independent switches: "use" controls whether the tool is offered to the
// model, and "handle" controls whether calls to the tool are dispatched.
// Both are enabled when a tool is registered.
type Toolkit struct {
	mu            sync.RWMutex
	tools         map[string]Tool
	useDisabled   map[string]bool
	handleDisable map[string]bool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewToolkit creates a new toolkit with the given tools.
// Returns an error if any tool has an invalid or duplicate name.
func NewToolkit(tools ...Tool) (*Toolkit, error) {
	tk := &Toolkit{
		tools:         make(map[string]Tool),
		useDisabled:   make(map[string]bool),
		handleDisable: make(map[string]bool),
	}
	if err := tk.Register(tools...); err != nil {
		return nil, err
	}
	return tk, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Register adds one or more tools to the toolkit, enabled for both use
// and handling. Returns an error if any tool has an invalid, duplicate
// or reserved name.
func (tk *Toolkit) Register(tools ...Tool) error {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	for _, t := range tools {
		if t == nil {
			return agent.ErrBadParameter.With("tool cannot be nil")
		}
		name := t.Name()
		if !types.IsIdentifier(name) {
			return agent.ErrBadParameter.Withf("invalid tool name: %q", name)
		}
		if isReservedToolName(name) {
			if _, ok := t.(*OutputTool); !ok {
				return agent.ErrBadParameter.Withf("reserved tool name: %q", name)
			}
		}
		if _, exists := tk.tools[name]; exists {
			return agent.ErrConflict.Withf("duplicate tool name: %q", name)
		}
		tk.tools[name] = t
		delete(tk.useDisabled, name)
		delete(tk.handleDisable, name)
	}
	return nil
}

// isReservedToolName returns true if the name is reserved for internal use.
func isReservedToolName(name string) bool {
	return name == OutputToolName
}

// Lookup returns a tool by name, or nil if not found
func (tk *Toolkit) Lookup(name string) Tool {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	return tk.tools[name]
}

// Tools returns all tools currently enabled for use, sorted by name
func (tk *Toolkit) Tools() []Tool {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	result := make([]Tool, 0, len(tk.tools))
	for name, t := range tk.tools {
		if !tk.useDisabled[name] {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// EnableUse marks a tool as offered to the model.
// Returns an error if the tool is not registered.
func (tk *Toolkit) EnableUse(name string) error {
	return tk.setDisabled(name, false, true)
}

// DisableUse stops offering a tool to the model. The tool remains
// registered and calls to it are still dispatched.
func (tk *Toolkit) DisableUse(name string) error {
	return tk.setDisabled(name, true, true)
}

// EnableHandle marks calls to a tool as dispatchable.
func (tk *Toolkit) EnableHandle(name string) error {
	return tk.setDisabled(name, false, false)
}

// DisableHandle stops dispatching calls to a tool. Calls to the tool
// behave as if the tool were not registered.
func (tk *Toolkit) DisableHandle(name string) error {
	return tk.setDisabled(name, true, false)
}

// UseEnabled returns true if a registered tool is offered to the model
func (tk *Toolkit) UseEnabled(name string) bool {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	_, exists := tk.tools[name]
	return exists && !tk.useDisabled[name]
}

// HandleEnabled returns true if calls to a registered tool are dispatched
func (tk *Toolkit) HandleEnabled(name string) bool {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	_, exists := tk.tools[name]
	return exists && !tk.handleDisable[name]
}

func (tk *Toolkit) setDisabled(name string, disabled, use bool) error {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	if _, exists := tk.tools[name]; !exists {
		return agent.ErrNotFound.Withf("tool not found: %q", name)
	}
	m := tk.handleDisable
	if use {
		m = tk.useDisabled
	}
	if disabled {
		m[name] = true
	} else {
		delete(m, name)
	}
	return nil
}

// Run executes a tool by name with the given input, which should be
// json.RawMessage, []byte or any JSON-marshallable value. Returns an
// error if the tool is not found or not enabled for handling, if the
// input does not match the schema, or if the tool execution fails.
func (tk *Toolkit) Run(ctx context.Context, name string, input any) (any, error) {
	// Lookup the tool
	tool := tk.Lookup(name)
	if tool == nil || !tk.HandleEnabled(name) {
		return nil, agent.ErrNotFound.Withf("tool not found: %q", name)
	}

	// Convert input to json.RawMessage
	var rawInput json.RawMessage
	if input != nil {
		switch v := input.(type) {
		case json.RawMessage:
			rawInput = v
		case []byte:
			rawInput = json.RawMessage(v)
		default:
			data, err := json.Marshal(input)
			if err != nil {
				return nil, agent.ErrBadParameter.Withf("failed to marshal input: %v", err)
			}
			rawInput = json.RawMessage(data)
		}
	}

	// Validate input against the schema if provided
	if len(rawInput) > 0 {
		tschema, err := tool.Schema()
		if err != nil {
			return nil, agent.ErrBadParameter.Withf("schema generation failed: %v", err)
		}
		if tschema != nil {
			var mapInput map[string]any
			if err := json.Unmarshal(rawInput, &mapInput); err != nil {
				return nil, agent.ErrBadParameter.Withf("failed to unmarshal JSON input: %v", err)
			}
			resolved, err := tschema.Resolve(nil)
			if err != nil {
				return nil, agent.ErrBadParameter.Withf("schema resolution failed: %v", err)
			}
			if err := resolved.Validate(mapInput); err != nil {
				return nil, agent.ErrBadParameter.Withf("input validation failed: %v", err)
			}
		}
	}

	// Run the tool with raw JSON
	return tool.Run(ctx, rawInput)
}

// RunCalls executes a set of tool calls concurrently and returns one
// result content block per call, in call order. Failed calls produce
// error result blocks rather than failing the batch; the returned error
// is reserved for context cancellation.
func (tk *Toolkit) RunCalls(ctx context.Context, calls []schema.ToolCall) ([]schema.ContentBlock, error) {
	results := make([]schema.ContentBlock, len(calls))

	var wg errgroup.Group
	for i, call := range calls {
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := tk.Run(ctx, call.Name, call.Input)
			if err != nil {
				results[i] = schema.NewToolError(call.ID, call.Name, err)
			} else {
				results[i] = schema.NewToolResult(call.ID, call.Name, out)
			}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Fingerprint returns a stable representation of the tools currently
// offered to the model, including their schemas, suitable for use in a
// cache key
func (tk *Toolkit) Fingerprint() string {
	var sb strings.Builder
	for _, t := range tk.Tools() {
		sb.WriteString(t.Name())
		sb.WriteByte('=')
		if tschema, err := t.Schema(); err == nil && tschema != nil {
			if data, err := json.Marshal(tschema); err == nil {
				sb.Write(data)
			}
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// Feedback returns a human-readable description of a tool call, including
// the tool name and its description when available.
func (tk *Toolkit) Feedback(call schema.ToolCall) string {
	if t := tk.Lookup(call.Name); t != nil && t.Description() != "" {
		return call.Name + ": " + t.Description()
	}
	return call.Name
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (tk *Toolkit) String() string {
	return types.Stringify(tk.Tools())
}
