package schema

import (
	"context"
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// SessionMeta describes a stored chat session: how responses are generated
// plus a name and labels for lookup and filtering.
type SessionMeta struct {
	GeneratorMeta `yaml:",inline"`
	Name          string            `json:"name,omitempty" yaml:"name" help:"Session name" optional:""`
	Labels        map[string]string `json:"labels,omitzero" yaml:"labels" help:"Session labels" optional:""`
}

// Session is a stored conversation with metadata
type Session struct {
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	SessionMeta
	Conversation Conversation `json:"conversation"`
}

// ListSessionRequest filters and paginates a session listing
type ListSessionRequest struct {
	Name   string            `json:"name,omitempty"`
	Labels map[string]string `json:"labels,omitzero"`
	Offset uint              `json:"offset,omitempty"`
	Limit  uint              `json:"limit,omitempty"`
}

// ListSessionResponse is a page of sessions plus the total count
type ListSessionResponse struct {
	Sessions []*Session `json:"sessions"`
	Offset   uint       `json:"offset"`
	Limit    uint       `json:"limit,omitempty"`
	Count    uint       `json:"count"`
}

// SessionStore is the interface for session storage backends.
type SessionStore interface {
	// CreateSession creates a new session from the given metadata,
	// returning the session with a unique ID.
	CreateSession(ctx context.Context, meta SessionMeta) (*Session, error)

	// GetSession retrieves an existing session by ID or name.
	// Returns an error if the session does not exist.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions matching the request, with pagination
	// support. Returns offset, limit and total count in the response.
	ListSessions(ctx context.Context, req ListSessionRequest) (*ListSessionResponse, error)

	// UpdateSession replaces the conversation and metadata of an existing
	// session, updating the modified timestamp. Returns the updated session.
	UpdateSession(ctx context.Context, session *Session) (*Session, error)

	// DeleteSession removes a session by ID or name. Returns an error if
	// no matching session exists.
	DeleteSession(ctx context.Context, id string) error
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s SessionMeta) String() string {
	return types.Stringify(s)
}

func (s Session) String() string {
	return types.Stringify(s)
}
