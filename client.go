/*
agent is a framework for building LLM-driven agents in Go. It provides
schema-validated tools, a chat agent which can enable and disable the
messages it handles, a task loop which drives the conversation between
the model, the agent and the user, and pluggable providers and caches.
*/
package agent

import (
	"context"

	// Packages
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Client is an LLM provider client
type Client interface {
	// Return the name of the provider
	Name() string

	// Return the models available from the provider
	ListModels(context.Context, ...opt.Opt) ([]schema.Model, error)

	// Return a model by name
	GetModel(context.Context, string, ...opt.Opt) (*schema.Model, error)
}

// Generator is a client which can generate messages from a model
type Generator interface {
	// Send a single message and return the response (stateless)
	WithoutSession(context.Context, schema.Model, *schema.Message, ...opt.Opt) (*schema.Message, *schema.Usage, error)

	// Send a message within a conversation and return the response (stateful).
	// The user message and the response are appended to the conversation.
	WithSession(context.Context, schema.Model, *schema.Conversation, *schema.Message, ...opt.Opt) (*schema.Message, *schema.Usage, error)
}
