package opt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// A generic option type, which can set options on a client, agent or request
type Opt func(*Opts) error

// Opts is a set of applied options
type Opts struct {
	values map[string]any
}

// StreamFn is called with text chunks as they arrive from the provider.
// The role identifies the source of the chunk ("assistant", "thinking", "tool").
type StreamFn func(role, text string)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Well-known option keys
const (
	StreamKey       = "stream"        // StreamFn
	ToolkitKey      = "toolkit"       // *tool.Toolkit
	SystemPromptKey = "system_prompt" // string
	TemperatureKey  = "temperature"   // float64
	MaxTokensKey    = "max_tokens"    // uint
	ThinkingKey     = "thinking"      // bool
	LimitKey        = "limit"         // uint
	OffsetKey       = "offset"        // uint
	ContentBlockKey = "content_block" // appended message content blocks
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Apply returns a structure of applied options
func Apply(opts ...Opt) (*Opts, error) {
	o := &Opts{values: make(map[string]any, len(opts))}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Get returns the value for key, or nil if not set
func (o *Opts) Get(key string) any {
	return o.values[key]
}

// Has returns true if the key exists
func (o *Opts) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// GetString returns the trimmed string value for key, or empty string if not set
func (o *Opts) GetString(key string) string {
	if v, ok := o.values[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// GetBool returns the boolean value for key, or false if not set
func (o *Opts) GetBool(key string) bool {
	if v, ok := o.values[key].(bool); ok {
		return v
	}
	return false
}

// GetUint returns the uint value for key, or 0 if not set
func (o *Opts) GetUint(key string) uint {
	if v, ok := o.values[key].(uint); ok {
		return v
	}
	return 0
}

// GetFloat64 returns the float64 value for key, or 0 if not set
func (o *Opts) GetFloat64(key string) float64 {
	if v, ok := o.values[key].(float64); ok {
		return v
	}
	return 0
}

// Fingerprint returns a stable representation of the applied options,
// suitable for use in a cache key. Keys are visited in sorted order and
// values which cannot be marshalled, such as callbacks, contribute their
// type only.
func (o *Opts) Fingerprint() string {
	keys := make([]string, 0, len(o.values))
	for key := range o.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		if data, err := json.Marshal(o.values[key]); err == nil {
			sb.Write(data)
		} else {
			fmt.Fprintf(&sb, "%T", o.values[key])
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// GetStream returns the streaming callback, or nil if not set
func (o *Opts) GetStream() StreamFn {
	if fn, ok := o.values[StreamKey].(StreamFn); ok {
		return fn
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// Error returns an option that always returns an error
func Error(err error) Opt {
	return func(o *Opts) error {
		return err
	}
}

// NoOp returns an option that does nothing
func NoOp() Opt {
	return func(o *Opts) error {
		return nil
	}
}

// WithOpts combines multiple options into a single option
func WithOpts(opts ...Opt) Opt {
	return func(o *Opts) error {
		for _, opt := range opts {
			if opt == nil {
				continue
			}
			if err := opt(o); err != nil {
				return err
			}
		}
		return nil
	}
}

// SetAny sets a key to any value
func SetAny(key string, value any) Opt {
	return func(o *Opts) error {
		o.values[key] = value
		return nil
	}
}

// AddAny appends a value to the slice stored under key
func AddAny(key string, value any) Opt {
	return func(o *Opts) error {
		if existing, ok := o.values[key].([]any); ok {
			o.values[key] = append(existing, value)
		} else {
			o.values[key] = []any{value}
		}
		return nil
	}
}

// GetSlice returns all values appended under key with AddAny
func (o *Opts) GetSlice(key string) []any {
	if v, ok := o.values[key].([]any); ok {
		return v
	}
	return nil
}

// SetString sets a key to a string value
func SetString(key, value string) Opt {
	return SetAny(key, value)
}

// SetUint sets a key to a uint value
func SetUint(key string, value uint) Opt {
	return SetAny(key, value)
}

// SetFloat64 sets a key to a float64 value
func SetFloat64(key string, value float64) Opt {
	return SetAny(key, value)
}

// SetBool sets a key to a boolean value
func SetBool(key string, value bool) Opt {
	return SetAny(key, value)
}

// WithStream sets the streaming callback for a generation request
func WithStream(fn StreamFn) Opt {
	return SetAny(StreamKey, fn)
}

// WithSystemPrompt sets the system prompt for a generation request
func WithSystemPrompt(prompt string) Opt {
	return SetString(SystemPromptKey, prompt)
}

// WithTemperature sets the sampling temperature for a generation request
func WithTemperature(t float64) Opt {
	return SetFloat64(TemperatureKey, t)
}

// WithMaxTokens sets the maximum number of output tokens for a generation request
func WithMaxTokens(n uint) Opt {
	return SetUint(MaxTokensKey, n)
}

// WithLimit sets the maximum number of items returned by a listing
func WithLimit(limit uint) Opt {
	return SetUint(LimitKey, limit)
}
