package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Instructions renders system prompt text describing the tools enabled for
// use, for models without native tool calling. Each tool is listed with its
// description, input schema and any worked examples, and the model is
// directed to emit calls as JSON objects with a "request" key.
func (tk *Toolkit) Instructions() string {
	tools := tk.Tools()
	if len(tools) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("You have access to the following tools. To use a tool, output a JSON object with a ")
	out.WriteString(fmt.Sprintf("%q key set to the tool name and the tool arguments as the remaining keys.\n", RequestKey))

	for _, t := range tools {
		out.WriteString("\n## " + t.Name() + "\n")
		if desc := t.Description(); desc != "" {
			out.WriteString(desc + "\n")
		}
		if s, err := t.Schema(); err == nil && s != nil {
			if data, err := json.Marshal(s); err == nil {
				out.WriteString("Input schema: " + string(data) + "\n")
			}
		}
		if p, ok := t.(ExampleProvider); ok {
			for _, example := range p.Examples() {
				if rendered, err := renderExample(t.Name(), example); err == nil {
					out.WriteString("Example")
					if example.Description != "" {
						out.WriteString(" (" + example.Description + ")")
					}
					out.WriteString(": " + rendered + "\n")
				}
			}
		}
	}
	return out.String()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// renderExample marshals an example input with the request key injected
func renderExample(name string, example Example) (string, error) {
	data, err := json.Marshal(example.Input)
	if err != nil {
		return "", err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[RequestKey] = name
	rendered, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(rendered), nil
}
