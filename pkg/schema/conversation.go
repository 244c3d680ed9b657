package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conversation is an ordered sequence of messages exchanged with a model
type Conversation struct {
	Messages []*Message `json:"messages"`
	Usage    Usage      `json:"usage,omitzero"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append adds messages to the conversation
func (c *Conversation) Append(messages ...*Message) {
	for _, message := range messages {
		if message == nil {
			continue
		}
		if message.Tokens == 0 {
			message.Tokens = message.EstimateTokens()
		}
		c.Messages = append(c.Messages, message)
	}
}

// AppendWithUsage adds a message and accumulates the usage reported
// by the provider for the call that produced it
func (c *Conversation) AppendWithUsage(message *Message, usage *Usage) {
	c.Append(message)
	c.Usage.Add(usage)
}

// Truncate discards messages from index n onwards, and returns the
// number of messages remaining. Used to roll back a conversation to
// an earlier snapshot.
func (c *Conversation) Truncate(n int) int {
	if n >= 0 && n < len(c.Messages) {
		c.Messages = c.Messages[:n]
	}
	return len(c.Messages)
}

// Len returns the number of messages in the conversation
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Last returns the most recent message, or nil if the conversation is empty
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Tokens returns the estimated token count for all messages
func (c *Conversation) Tokens() uint {
	var tokens uint
	for _, message := range c.Messages {
		tokens += message.Tokens
	}
	return tokens
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c Conversation) String() string {
	return types.Stringify(c)
}
