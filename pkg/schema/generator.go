package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// GeneratorMeta describes how responses are generated: which provider and
// model to use and the sampling parameters applied to each call.
type GeneratorMeta struct {
	Provider     string   `json:"provider,omitempty" yaml:"provider" help:"Provider name" optional:""`
	Model        string   `json:"model,omitempty" yaml:"model" help:"Model name" optional:""`
	SystemPrompt string   `json:"system_prompt,omitempty" yaml:"system_prompt" help:"System prompt" optional:""`
	Temperature  *float64 `json:"temperature,omitempty" yaml:"temperature" help:"Sampling temperature" optional:""`
	MaxTokens    uint     `json:"max_tokens,omitempty" yaml:"max_tokens" help:"Maximum tokens per response" optional:""`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (g GeneratorMeta) String() string {
	return types.Stringify(g)
}
