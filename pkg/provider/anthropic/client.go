/*
anthropic implements a provider for the Anthropic Messages API
https://docs.anthropic.com/en/api/messages
*/
package anthropic

import (
	"context"
	"encoding/json"
	"time"

	// Packages
	sdk "github.com/anthropics/anthropic-sdk-go"
	option "github.com/anthropics/anthropic-sdk-go/option"
	agent "github.com/mutablelogic/go-agent"
	modelcache "github.com/mutablelogic/go-agent/pkg/modelcache"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	client sdk.Client
	cache  *modelcache.ModelCache
}

var _ agent.Client = (*Client)(nil)
var _ agent.Generator = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	providerName  = "anthropic"
	modelCacheTTL = time.Hour

	// The Messages API requires a completion cap on every call
	defaultMaxTokens = 4096
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new client with the given API key
func New(apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, agent.ErrBadParameter.With("API key is required")
	}
	return &Client{
		client: sdk.NewClient(append(opts, option.WithAPIKey(apiKey))...),
		cache:  modelcache.NewModelCache(modelCacheTTL, 20),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - agent.Client

// Name returns the provider name
func (*Client) Name() string {
	return providerName
}

// ListModels returns the models available to the API key
func (c *Client) ListModels(ctx context.Context, opts ...opt.Opt) ([]schema.Model, error) {
	return c.cache.ListModels(ctx, opts, func(ctx context.Context, _ ...opt.Opt) ([]schema.Model, error) {
		page, err := c.client.Models.List(ctx, sdk.ModelListParams{})
		if err != nil {
			return nil, err
		}
		result := make([]schema.Model, 0, len(page.Data))
		for _, model := range page.Data {
			result = append(result, schema.Model{
				Name:        model.ID,
				Description: model.DisplayName,
				Created:     types.Ptr(model.CreatedAt),
				OwnedBy:     providerName,
			})
		}
		return result, nil
	})
}

// GetModel returns one model by name
func (c *Client) GetModel(ctx context.Context, name string, _ ...opt.Opt) (*schema.Model, error) {
	return c.cache.GetModel(ctx, name, func(ctx context.Context, name string) (*schema.Model, error) {
		model, err := c.client.Models.Get(ctx, name, sdk.ModelGetParams{})
		if err != nil {
			return nil, agent.ErrNotFound.Withf("model %q: %v", name, err)
		}
		return types.Ptr(schema.Model{
			Name:        model.ID,
			Description: model.DisplayName,
			Created:     types.Ptr(model.CreatedAt),
			OwnedBy:     providerName,
		}), nil
	})
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
	return c.chat(ctx, model, []*schema.Message{message}, options)
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

	messages := append(append([]*schema.Message{}, session.Messages...), message)
	response, usage, err := c.chat(ctx, model, messages, options)
	if err != nil {
		return nil, nil, err
	}

	session.Append(message)
	session.AppendWithUsage(response, usage)
	return response, usage, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// chat sends a messages request and converts the response
func (c *Client) chat(ctx context.Context, model schema.Model, messages []*schema.Message, options *opt.Opts) (*schema.Message, *schema.Usage, error) {
	maxTokens := int64(defaultMaxTokens)
	if n := options.GetUint(opt.MaxTokensKey); n > 0 {
		maxTokens = int64(n)
	}

	params := sdk.MessageNewParams{
		MaxTokens: maxTokens,
		Messages:  encodeMessages(messages),
		Model:     sdk.Model(model.Name),
	}
	if system := options.GetString(opt.SystemPromptKey); system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if tools := encodeTools(options); len(tools) > 0 {
		params.Tools = tools
	}
	if options.Has(opt.TemperatureKey) {
		params.Temperature = sdk.Float(options.GetFloat64(opt.TemperatureKey))
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	response, usage := decodeMessage(msg)

	// The Messages API has no incremental text here, so deliver the
	// response to the stream callback in one chunk
	if streamFn := options.GetStream(); streamFn != nil {
		if text := response.Text(); text != "" {
			streamFn(schema.RoleAssistant, text)
		}
	}
	return response, usage, nil
}

// encodeMessages converts conversation messages into message params
func encodeMessages(messages []*schema.Message) []sdk.MessageParam {
	result := make([]sdk.MessageParam, 0, len(messages))
	for _, message := range messages {
		var blocks []sdk.ContentBlockParamUnion
		for _, block := range message.Content {
			switch {
			case block.Text != nil && *block.Text != "":
				blocks = append(blocks, sdk.NewTextBlock(*block.Text))
			case block.ToolCall != nil:
				var input any
				if len(block.ToolCall.Input) > 0 {
					if err := json.Unmarshal(block.ToolCall.Input, &input); err != nil {
						continue
					}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(block.ToolCall.ID, input, block.ToolCall.Name))
			case block.ToolResult != nil:
				blocks = append(blocks, sdk.NewToolResultBlock(block.ToolResult.ID, string(block.ToolResult.Content), block.ToolResult.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if message.Role == schema.RoleAssistant {
			result = append(result, sdk.NewAssistantMessage(blocks...))
		} else {
			result = append(result, sdk.NewUserMessage(blocks...))
		}
	}
	return result
}

// encodeTools converts the toolkit in the options into tool params
func encodeTools(options *opt.Opts) []sdk.ToolUnionParam {
	toolkit, ok := options.Get(opt.ToolkitKey).(*tool.Toolkit)
	if !ok || toolkit == nil {
		return nil
	}
	var result []sdk.ToolUnionParam
	for _, t := range toolkit.Tools() {
		s, err := t.Schema()
		if err != nil {
			continue
		}
		data, err := json.Marshal(s)
		if err != nil {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: fields}, t.Name())
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(t.Description())
		}
		result = append(result, u)
	}
	return result
}

// decodeMessage converts a response into a message and usage
func decodeMessage(msg *sdk.Message) (*schema.Message, *schema.Usage) {
	var content []schema.ContentBlock
	result := schema.ResultStop
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				content = append(content, schema.ContentBlock{Text: types.Ptr(block.Text)})
			}
		case "thinking":
			if block.Thinking != "" {
				content = append(content, schema.ContentBlock{Thinking: types.Ptr(block.Thinking)})
			}
		case "tool_use":
			content = append(content, schema.ContentBlock{
				ToolCall: &schema.ToolCall{
					ID:    block.ID,
					Name:  block.Name,
					Input: json.RawMessage(block.Input),
				},
			})
			result = schema.ResultToolCall
		}
	}
	switch msg.StopReason {
	case "max_tokens":
		result = schema.ResultMaxTokens
	case "refusal":
		result = schema.ResultBlocked
	}

	message := types.Ptr(schema.Message{
		Role:    schema.RoleAssistant,
		Content: content,
		Result:  result,
		Tokens:  uint(msg.Usage.OutputTokens),
	})
	usage := types.Ptr(schema.Usage{
		InputTokens:  uint(msg.Usage.InputTokens),
		OutputTokens: uint(msg.Usage.OutputTokens),
	})
	return message, usage
}
