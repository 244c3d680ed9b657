/*
ollama implements a provider for a local ollama server
https://github.com/ollama/ollama/blob/main/docs/api.md
*/
package ollama

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
	client "github.com/mutablelogic/go-client"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
	cache *modelcache.ModelCache
}

var _ agent.Client = (*Client)(nil)
var _ agent.Generator = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	providerName  = "ollama"
	modelCacheTTL = 5 * time.Minute
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new client with an ollama endpoint, which should be
// something like "http://localhost:11434/api"
func New(endpoint string, opts ...client.ClientOpt) (*Client, error) {
	c, err := client.New(append(opts, client.OptEndpoint(endpoint))...)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client: c,
		cache:  modelcache.NewModelCache(modelCacheTTL, 10),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - agent.Client

// Name returns the provider name
func (*Client) Name() string {
	return providerName
}

// ListModels returns the models available on the ollama server
func (ollama *Client) ListModels(ctx context.Context, opts ...opt.Opt) ([]schema.Model, error) {
	return ollama.cache.ListModels(ctx, opts, func(ctx context.Context, _ ...opt.Opt) ([]schema.Model, error) {
		var response listModelsResponse
		if err := ollama.DoWithContext(ctx, nil, &response, client.OptPath("tags")); err != nil {
			return nil, err
		}
		result := make([]schema.Model, len(response.Models))
		for i, m := range response.Models {
			result[i] = m.toSchema()
		}
		return result, nil
	})
}

// GetModel returns one model by name
func (ollama *Client) GetModel(ctx context.Context, name string, _ ...opt.Opt) (*schema.Model, error) {
	return ollama.cache.GetModel(ctx, name, func(ctx context.Context, name string) (*schema.Model, error) {
		models, err := ollama.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		for _, model := range models {
			if model.Name == name {
				return types.Ptr(model), nil
			}
		}
		return nil, agent.ErrNotFound.Withf("model %q not found", name)
	})
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - agent.Generator

// WithoutSession sends a single message and returns the response (stateless)
func (ollama *Client) WithoutSession(ctx context.Context, model schema.Model, message *schema.Message, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	if message == nil {
		return nil, nil, agent.ErrBadParameter.With("message is required")
	}
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, nil, err
	}
	return ollama.chat(ctx, model, []*schema.Message{message}, options)
}

// WithSession sends a message within a conversation, appending both the
// message and the response to it (stateful)
func (ollama *Client) WithSession(ctx context.Context, model schema.Model, session *schema.Conversation, message *schema.Message, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
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
	response, usage, err := ollama.chat(ctx, model, messages, options)
	if err != nil {
		return nil, nil, err
	}

	session.Append(message)
	session.AppendWithUsage(response, usage)
	return response, usage, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// chat sends a chat request and converts the response
func (ollama *Client) chat(ctx context.Context, model schema.Model, messages []*schema.Message, options *opt.Opts) (*schema.Message, *schema.Usage, error) {
	streamFn := options.GetStream()

	// Build the request
	request := reqChat{
		Model:    model.Name,
		Messages: encodeMessages(messages, options.GetString(opt.SystemPromptKey)),
		Tools:    encodeTools(options),
		Stream:   streamFn != nil,
		Options:  encodeOptions(options),
	}
	req, err := client.NewJSONRequest(request)
	if err != nil {
		return nil, nil, err
	}

	// Send the request, accumulating streamed deltas
	var response, delta respChat
	reqopts := []client.RequestOpt{client.OptPath("chat")}
	if streamFn != nil {
		reqopts = append(reqopts, client.OptJsonStreamCallback(func(v any) error {
			chunk, ok := v.(*respChat)
			if !ok || chunk == nil {
				return agent.ErrInternalServerError.Withf("invalid stream response: %v", v)
			}
			response.Model = chunk.Model
			response.Message.Role = chunk.Message.Role
			response.Message.Content += chunk.Message.Content
			response.Message.ToolCalls = append(response.Message.ToolCalls, chunk.Message.ToolCalls...)
			if chunk.Done {
				response.Done = chunk.Done
				response.Reason = chunk.Reason
				response.PromptEvalCount = chunk.PromptEvalCount
				response.EvalCount = chunk.EvalCount
			}
			if chunk.Message.Content != "" {
				streamFn(schema.RoleAssistant, chunk.Message.Content)
			}
			return nil
		}))
	}
	if err := ollama.DoWithContext(ctx, req, &delta, reqopts...); err != nil {
		return nil, nil, err
	}
	if streamFn == nil {
		response = delta
	}

	// Convert the response
	return decodeResponse(response)
}

// encodeMessages flattens conversation messages into the wire format,
// prepending a system message when a prompt is set
func encodeMessages(messages []*schema.Message, system string) []wireMessage {
	result := make([]wireMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, wireMessage{Role: schema.RoleSystem, Content: system})
	}
	for _, message := range messages {
		// Tool results become individual tool role messages
		results := message.ToolResults()
		if len(results) > 0 {
			for _, r := range results {
				result = append(result, wireMessage{
					Role:    schema.RoleTool,
					Name:    r.Name,
					Content: string(r.Content),
				})
			}
			continue
		}
		m := wireMessage{
			Role:    message.Role,
			Content: message.Text(),
		}
		for _, call := range message.ToolCalls() {
			var args map[string]any
			if len(call.Input) > 0 {
				if err := json.Unmarshal(call.Input, &args); err != nil {
					continue
				}
			}
			m.ToolCalls = append(m.ToolCalls, wireToolCall{
				Type: "function",
				Function: wireToolCallFunction{
					Name:      call.Name,
					Arguments: args,
				},
			})
		}
		result = append(result, m)
	}
	return result
}

// encodeTools converts the toolkit in the options into the wire format
func encodeTools(options *opt.Opts) []wireTool {
	toolkit, ok := options.Get(opt.ToolkitKey).(*tool.Toolkit)
	if !ok || toolkit == nil {
		return nil
	}
	var result []wireTool
	for _, t := range toolkit.Tools() {
		s, err := t.Schema()
		if err != nil {
			continue
		}
		data, err := json.Marshal(s)
		if err != nil {
			continue
		}
		var parameters map[string]any
		if err := json.Unmarshal(data, &parameters); err != nil {
			continue
		}
		result = append(result, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  parameters,
			},
		})
	}
	return result
}

// encodeOptions maps generation parameters to ollama model options
func encodeOptions(options *opt.Opts) map[string]any {
	result := make(map[string]any)
	if options.Has(opt.TemperatureKey) {
		result["temperature"] = options.GetFloat64(opt.TemperatureKey)
	}
	if n := options.GetUint(opt.MaxTokensKey); n > 0 {
		result["num_predict"] = n
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// decodeResponse converts a wire response into a message and usage
func decodeResponse(response respChat) (*schema.Message, *schema.Usage, error) {
	var content []schema.ContentBlock
	if response.Message.Content != "" {
		content = append(content, schema.ContentBlock{Text: types.Ptr(response.Message.Content)})
	}
	result := schema.ResultStop
	for _, call := range response.Message.ToolCalls {
		input, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			return nil, nil, err
		}
		content = append(content, schema.ContentBlock{
			ToolCall: &schema.ToolCall{
				Name:  call.Function.Name,
				Input: json.RawMessage(input),
			},
		})
		result = schema.ResultToolCall
	}
	if response.Reason == "length" {
		result = schema.ResultMaxTokens
	}

	message := types.Ptr(schema.Message{
		Role:    schema.RoleAssistant,
		Content: content,
		Result:  result,
		Tokens:  uint(response.EvalCount),
	})
	usage := types.Ptr(schema.Usage{
		InputTokens:  uint(response.PromptEvalCount),
		OutputTokens: uint(response.EvalCount),
	})
	return message, usage, nil
}
