/*
openai implements a provider for the OpenAI Chat Completions API
https://platform.openai.com/docs/api-reference
*/
package openai

import (
	"context"
	"encoding/json"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	modelcache "github.com/mutablelogic/go-agent/pkg/modelcache"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	types "github.com/mutablelogic/go-server/pkg/types"
	sdk "github.com/openai/openai-go/v2"
	option "github.com/openai/openai-go/v2/option"
	shared "github.com/openai/openai-go/v2/shared"
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
	providerName  = "openai"
	modelCacheTTL = time.Hour
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
		cache:  modelcache.NewModelCache(modelCacheTTL, 50),
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
		page, err := c.client.Models.List(ctx)
		if err != nil {
			return nil, err
		}
		result := make([]schema.Model, 0, len(page.Data))
		for _, model := range page.Data {
			result = append(result, schema.Model{
				Name:    model.ID,
				Created: types.Ptr(time.Unix(model.Created, 0)),
				OwnedBy: model.OwnedBy,
			})
		}
		return result, nil
	})
}

// GetModel returns one model by name
func (c *Client) GetModel(ctx context.Context, name string, _ ...opt.Opt) (*schema.Model, error) {
	return c.cache.GetModel(ctx, name, func(ctx context.Context, name string) (*schema.Model, error) {
		model, err := c.client.Models.Get(ctx, name)
		if err != nil {
			return nil, agent.ErrNotFound.Withf("model %q: %v", name, err)
		}
		return types.Ptr(schema.Model{
			Name:    model.ID,
			Created: types.Ptr(time.Unix(model.Created, 0)),
			OwnedBy: model.OwnedBy,
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

// chat sends a completion request, streaming when a callback is set
func (c *Client) chat(ctx context.Context, model schema.Model, messages []*schema.Message, options *opt.Opts) (*schema.Message, *schema.Usage, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(model.Name),
		Messages: encodeMessages(messages, options.GetString(opt.SystemPromptKey)),
		Tools:    encodeTools(options),
	}
	if options.Has(opt.TemperatureKey) {
		params.Temperature = sdk.Float(options.GetFloat64(opt.TemperatureKey))
	}
	if n := options.GetUint(opt.MaxTokensKey); n > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(n))
	}

	var completion *sdk.ChatCompletion
	if streamFn := options.GetStream(); streamFn != nil {
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		acc := sdk.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				streamFn(schema.RoleAssistant, chunk.Choices[0].Delta.Content)
			}
		}
		if err := stream.Err(); err != nil {
			return nil, nil, err
		}
		completion = &acc.ChatCompletion
	} else {
		response, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, nil, err
		}
		completion = response
	}

	return decodeCompletion(completion)
}

// encodeMessages flattens conversation messages into completion params,
// prepending a system message when a prompt is set
func encodeMessages(messages []*schema.Message, system string) []sdk.ChatCompletionMessageParamUnion {
	result := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		result = append(result, sdk.SystemMessage(system))
	}
	for _, message := range messages {
		// Tool results become individual tool messages
		results := message.ToolResults()
		if len(results) > 0 {
			for _, r := range results {
				result = append(result, sdk.ToolMessage(string(r.Content), r.ID))
			}
			continue
		}

		// Assistant messages carry their tool calls
		calls := message.ToolCalls()
		if message.Role == schema.RoleAssistant && len(calls) > 0 {
			param := sdk.ChatCompletionAssistantMessageParam{}
			if text := message.Text(); text != "" {
				param.Content.OfString = sdk.String(text)
			}
			for _, call := range calls {
				param.ToolCalls = append(param.ToolCalls, sdk.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &sdk.ChatCompletionMessageFunctionToolCallParam{
						ID:   call.ID,
						Type: "function",
						Function: sdk.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(call.Input),
						},
					},
				})
			}
			result = append(result, sdk.ChatCompletionMessageParamUnion{OfAssistant: &param})
			continue
		}

		switch message.Role {
		case schema.RoleAssistant:
			result = append(result, sdk.AssistantMessage(message.Text()))
		case schema.RoleSystem:
			result = append(result, sdk.SystemMessage(message.Text()))
		default:
			result = append(result, sdk.UserMessage(message.Text()))
		}
	}
	return result
}

// encodeTools converts the toolkit in the options into tool params
func encodeTools(options *opt.Opts) []sdk.ChatCompletionToolUnionParam {
	toolkit, ok := options.Get(opt.ToolkitKey).(*tool.Toolkit)
	if !ok || toolkit == nil {
		return nil
	}
	var result []sdk.ChatCompletionToolUnionParam
	for _, t := range toolkit.Tools() {
		s, err := t.Schema()
		if err != nil {
			continue
		}
		data, err := json.Marshal(s)
		if err != nil {
			continue
		}
		var parameters sdk.FunctionParameters
		if err := json.Unmarshal(data, &parameters); err != nil {
			continue
		}
		result = append(result, sdk.ChatCompletionToolUnionParam{
			OfFunction: &sdk.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        t.Name(),
					Description: sdk.String(t.Description()),
					Parameters:  parameters,
				},
			},
		})
	}
	return result
}

// decodeCompletion converts a completion into a message and usage
func decodeCompletion(completion *sdk.ChatCompletion) (*schema.Message, *schema.Usage, error) {
	if len(completion.Choices) == 0 {
		return nil, nil, agent.ErrInternalServerError.With("no choices in completion")
	}
	choice := completion.Choices[0]

	var content []schema.ContentBlock
	if choice.Message.Content != "" {
		content = append(content, schema.ContentBlock{Text: types.Ptr(choice.Message.Content)})
	}
	for _, call := range choice.Message.ToolCalls {
		content = append(content, schema.ContentBlock{
			ToolCall: &schema.ToolCall{
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: json.RawMessage(call.Function.Arguments),
			},
		})
	}

	var result schema.ResultType
	switch choice.FinishReason {
	case "stop":
		result = schema.ResultStop
	case "length":
		result = schema.ResultMaxTokens
	case "tool_calls", "function_call":
		result = schema.ResultToolCall
	case "content_filter":
		result = schema.ResultBlocked
	}

	message := types.Ptr(schema.Message{
		Role:    schema.RoleAssistant,
		Content: content,
		Result:  result,
		Tokens:  uint(completion.Usage.CompletionTokens),
	})
	usage := types.Ptr(schema.Usage{
		InputTokens:  uint(completion.Usage.PromptTokens),
		OutputTokens: uint(completion.Usage.CompletionTokens),
	})
	return message, usage, nil
}
