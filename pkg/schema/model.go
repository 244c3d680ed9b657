package schema

import (
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Model represents a language model offered by a provider
type Model struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Created     *time.Time     `json:"created,omitempty"`
	OwnedBy     string         `json:"owned_by,omitempty"`
	Aliases     []string       `json:"aliases,omitempty"`
	Meta        map[string]any `json:"meta,omitzero"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Model) String() string {
	return types.Stringify(m)
}
