package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Usage represents token usage for one or more generation calls
type Usage struct {
	InputTokens  uint `json:"input_tokens"`
	OutputTokens uint `json:"output_tokens"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Add accumulates another usage value into this one
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Tokens returns the total number of tokens used
func (u Usage) Tokens() uint {
	return u.InputTokens + u.OutputTokens
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (u Usage) String() string {
	return types.Stringify(u)
}
