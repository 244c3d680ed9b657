package tool

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FinalResult is a terminal tool result. When a tool returns one, the run
// loop ends immediately and the wrapped value becomes the result of the
// whole task, bypassing any parent tasks.
type FinalResult struct {
	Value any `json:"value"`
}

// DoneResult is a terminal tool result. When a tool returns one, the
// current task ends and the wrapped value is returned to the caller,
// which may be a parent task.
type DoneResult struct {
	Value any `json:"value"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Final wraps a value as a terminal result for the whole task tree
func Final(v any) FinalResult {
	return FinalResult{Value: v}
}

// Done wraps a value as a terminal result for the current task
func Done(v any) DoneResult {
	return DoneResult{Value: v}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsFinal returns the wrapped value and true if v is a result that
// terminates the whole task tree
func IsFinal(v any) (any, bool) {
	if r, ok := v.(FinalResult); ok {
		return r.Value, true
	}
	return nil, false
}

// IsDone returns the wrapped value and true if v is a result that
// terminates the current task
func IsDone(v any) (any, bool) {
	if r, ok := v.(DoneResult); ok {
		return r.Value, true
	}
	return nil, false
}

// IsTerminal returns true if v ends the run loop
func IsTerminal(v any) bool {
	if _, ok := IsFinal(v); ok {
		return true
	}
	_, ok := IsDone(v)
	return ok
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r FinalResult) String() string {
	return types.Stringify(r)
}

func (r DoneResult) String() string {
	return types.Stringify(r)
}
