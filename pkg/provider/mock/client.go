/*
mock implements a scriptable LLM provider for tests and offline use.
Responses come from a queued script, from substring-matched rules, or by
echoing the input. It requires no API key or network access.
*/
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Rule maps a substring of the user message to a canned response
type Rule struct {
	Match    string            // Substring matched against the message text
	Reply    string            // Text of the response
	Calls    []schema.ToolCall // Tool calls included in the response
	Thinking string            // Thinking content included in the response
}

// Client implements a scriptable provider
type Client struct {
	mu     sync.Mutex
	model  schema.Model
	script []*schema.Message
	rules  []Rule
}

var _ agent.Client = (*Client)(nil)
var _ agent.Generator = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	providerName     = "mock"
	defaultModelName = "mock-1"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Opt is a functional option for configuring the mock client
type Opt func(*Client) error

// New creates a new mock client
func New(opts ...Opt) (*Client, error) {
	c := &Client{
		model: schema.Model{
			Name:    defaultModelName,
			OwnedBy: providerName,
			Created: types.Ptr(time.Now()),
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithRule adds a substring-matched canned response
func WithRule(rule Rule) Opt {
	return func(c *Client) error {
		if rule.Match == "" {
			return agent.ErrBadParameter.With("rule match is required")
		}
		c.rules = append(c.rules, rule)
		return nil
	}
}

// WithScript queues responses returned in order before any rules are
// consulted. Each response is used exactly once.
func WithScript(messages ...*schema.Message) Opt {
	return func(c *Client) error {
		c.script = append(c.script, messages...)
		return nil
	}
}

// WithModel overrides the model name reported by the client
func WithModel(name string) Opt {
	return func(c *Client) error {
		if name == "" {
			return agent.ErrBadParameter.With("model name is required")
		}
		c.model.Name = name
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - agent.Client

// Name returns the provider name
func (*Client) Name() string {
	return providerName
}

// ListModels returns the single mock model
func (c *Client) ListModels(_ context.Context, _ ...opt.Opt) ([]schema.Model, error) {
	return []schema.Model{c.model}, nil
}

// GetModel returns the mock model by name, or for any name when the
// provider name is given
func (c *Client) GetModel(_ context.Context, name string, _ ...opt.Opt) (*schema.Model, error) {
	if name == c.model.Name || name == providerName {
		return types.Ptr(c.model), nil
	}
	return nil, agent.ErrNotFound.Withf("model %q not found", name)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - agent.Generator

// WithoutSession sends a single message and returns the response (stateless)
func (c *Client) WithoutSession(ctx context.Context, model schema.Model, message *schema.Message, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	if message == nil {
		return nil, nil, agent.ErrBadParameter.With("message is required")
	}

	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, nil, err
	}

	response := c.respond(message)
	usage := usageFor(message, response)
	stream(options, response)

	return response, usage, nil
}

// WithSession sends a message within a conversation, appending both the
// message and the response to it (stateful)
func (c *Client) WithSession(ctx context.Context, model schema.Model, session *schema.Conversation, message *schema.Message, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	if session == nil {
		return nil, nil, agent.ErrBadParameter.With("session is required")
	}
	if message == nil {
		return nil, nil, agent.ErrBadParameter.With("message is required")
	}

	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, nil, err
	}

	response := c.respond(message)
	usage := usageFor(message, response)

	session.Append(message)
	session.AppendWithUsage(response, usage)
	stream(options, response)

	return response, usage, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// respond picks the next scripted response, then the first matching rule,
// then echoes the input
func (c *Client) respond(message *schema.Message) *schema.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Scripted responses are consumed in order
	if len(c.script) > 0 {
		response := c.script[0]
		c.script = c.script[1:]
		return response
	}

	// Match rules against the message text and tool result content
	text := message.Text()
	for _, result := range message.ToolResults() {
		text += "\n" + string(result.Content)
	}
	for _, rule := range c.rules {
		if strings.Contains(text, rule.Match) {
			return ruleMessage(rule)
		}
	}

	// Echo fallback
	return types.Ptr(schema.Message{
		Role: schema.RoleAssistant,
		Content: []schema.ContentBlock{
			{Text: types.Ptr(message.Text())},
		},
		Result: schema.ResultStop,
	})
}

func ruleMessage(rule Rule) *schema.Message {
	content := make([]schema.ContentBlock, 0, len(rule.Calls)+2)
	if rule.Thinking != "" {
		content = append(content, schema.ContentBlock{Thinking: types.Ptr(rule.Thinking)})
	}
	if rule.Reply != "" {
		content = append(content, schema.ContentBlock{Text: types.Ptr(rule.Reply)})
	}
	result := schema.ResultStop
	for _, call := range rule.Calls {
		content = append(content, schema.ContentBlock{ToolCall: types.Ptr(call)})
		result = schema.ResultToolCall
	}
	return types.Ptr(schema.Message{
		Role:    schema.RoleAssistant,
		Content: content,
		Result:  result,
	})
}

func usageFor(message, response *schema.Message) *schema.Usage {
	return types.Ptr(schema.Usage{
		InputTokens:  message.EstimateTokens(),
		OutputTokens: response.EstimateTokens(),
	})
}

// stream delivers a response word-by-word to the streaming callback,
// simulating chunked delivery as real providers do
func stream(options *opt.Opts, response *schema.Message) {
	fn := options.GetStream()
	if fn == nil {
		return
	}
	if thinking := response.Thinking(); thinking != "" {
		fn(schema.RoleThinking, thinking)
	}
	words := strings.Fields(response.Text())
	for i, word := range words {
		if i > 0 {
			word = " " + word
		}
		fn(schema.RoleAssistant, word)
	}
}
