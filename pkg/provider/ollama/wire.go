package ollama

import (
	"time"

	// Packages
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES - REQUEST

type reqChat struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Tools    []wireTool     `json:"tools,omitempty"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type wireMessage struct {
	Role      string         `json:"role"` // system, user, assistant, tool
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"` // function name when role is tool
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"` // function
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireToolCall struct {
	Type     string               `json:"type"` // function
	Function wireToolCallFunction `json:"function"`
}

type wireToolCallFunction struct {
	Index     int            `json:"index,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// TYPES - RESPONSE

type respChat struct {
	Model           string      `json:"model"`
	CreatedAt       time.Time   `json:"created_at"`
	Message         wireMessage `json:"message"`
	Done            bool        `json:"done"`
	Reason          string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

type respModel struct {
	Name       string    `json:"name"`
	Model      string    `json:"model,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Details    struct {
		Family            string   `json:"family"`
		Families          []string `json:"families"`
		ParameterSize     string   `json:"parameter_size"`
		QuantizationLevel string   `json:"quantization_level"`
	} `json:"details"`
}

type listModelsResponse struct {
	Models []respModel `json:"models"`
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m respModel) toSchema() schema.Model {
	return schema.Model{
		Name:    m.Name,
		Created: types.Ptr(m.ModifiedAt),
		OwnedBy: providerName,
		Meta: map[string]any{
			"family":             m.Details.Family,
			"parameter_size":     m.Details.ParameterSize,
			"quantization_level": m.Details.QuantizationLevel,
			"size":               m.Size,
			"digest":             m.Digest,
		},
	}
}
