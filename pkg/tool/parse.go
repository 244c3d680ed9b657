package tool

import (
	"encoding/json"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-agent/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// RequestKey is the JSON key that names the tool in a text-embedded call.
// Models without native tool calling are instructed to emit a JSON object
// with this key set to the tool name and the remaining keys as arguments.
const RequestKey = "request"

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExtractCalls scans message text for embedded JSON objects containing a
// "request" key and returns them as tool calls. The request key names the
// tool and is stripped from the arguments. Single-quoted strings, as
// emitted by some models, are tolerated. Objects that are not valid JSON
// or have no string request key are ignored.
func ExtractCalls(text string) []schema.ToolCall {
	var calls []schema.ToolCall
	for _, candidate := range scanObjects(text) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
			if err := json.Unmarshal([]byte(looseJSON(candidate)), &fields); err != nil {
				continue
			}
		}
		raw, exists := fields[RequestKey]
		if !exists {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || name == "" {
			continue
		}
		delete(fields, RequestKey)
		input, err := json.Marshal(fields)
		if err != nil {
			continue
		}
		calls = append(calls, schema.ToolCall{
			Name:  name,
			Input: json.RawMessage(input),
		})
	}
	return calls
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// looseJSON rewrites single-quoted string literals to double-quoted JSON
// strings. Escaped quotes are preserved and double quotes inside a
// single-quoted string are escaped.
func looseJSON(text string) string {
	var sb strings.Builder
	var inSingle, inDouble, escaped bool

	for _, c := range text {
		switch {
		case escaped:
			if inSingle && c == '\'' {
				// \' is not valid JSON, unescape it
				sb.WriteRune(c)
			} else {
				sb.WriteRune('\\')
				sb.WriteRune(c)
			}
			escaped = false
		case c == '\\' && (inSingle || inDouble):
			escaped = true
		case c == '\'' && !inDouble:
			sb.WriteRune('"')
			inSingle = !inSingle
		case c == '"' && inSingle:
			sb.WriteString(`\"`)
		default:
			if c == '"' && !inSingle {
				inDouble = !inDouble
			}
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// scanObjects returns every top-level balanced {...} region in the text.
// Brace counting ignores braces inside JSON string literals.
func scanObjects(text string) []string {
	var objects []string
	var depth int
	var start int
	var inString, escaped bool

	for i, c := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					objects = append(objects, text[start:i+1])
				}
			}
		}
	}
	return objects
}
