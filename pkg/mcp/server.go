/*
mcp implements a Model Context Protocol server which exposes a toolkit
over standard input and output.
https://modelcontextprotocol.io/specification/2025-06-18/basic/lifecycle
*/
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	// Packages
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
)

///////////////////////////////////////////////////////////////////////
// TYPES

type Server struct {
	name    string
	version string

	// Private members
	mu          sync.RWMutex       // Handler map lock
	handlers    map[string]Handler // Method handlers
	toolkit     *tool.Toolkit      // Toolkit for the server
	initialised bool
}

type Handler func(context.Context, any, json.RawMessage) (any, error)

///////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Create a new MCP server with the given name and version. Pass
// tool.WithToolkit to expose tools.
func New(name, version string, opts ...opt.Opt) (*Server, error) {
	o, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}

	self := &Server{
		name:     name,
		version:  version,
		handlers: make(map[string]Handler, 10),
	}

	// Extract toolkit from options
	if v, ok := o.Get(opt.ToolkitKey).(*tool.Toolkit); ok {
		self.toolkit = v
	}

	// Register default handlers
	self.HandlerFunc(MessageTypeInitialize, self.handleInitialize)
	self.HandlerFunc(MessageTypePing, self.handlePing)
	self.HandlerFunc(NotificationTypeInitialize, self.handleInitialized)
	self.HandlerFunc(MessageTypeListPrompts, self.handleListPrompts)
	self.HandlerFunc(MessageTypeListResources, self.handleListResources)
	self.HandlerFunc(MessageTypeListTools, self.handleListTools)
	self.HandlerFunc(MessageTypeCallTool, self.handleCallTool)

	// Return success
	return self, nil
}

// Serve requests over standard input and output, running in the
// foreground until the input reaches EOF or the context is done.
func (server *Server) RunStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	// Handlers must drain before the writer channel closes
	var handlers, writers sync.WaitGroup
	writerCh := make(chan []byte)
	defer writers.Wait()
	defer close(writerCh)
	defer handlers.Wait()

	writers.Go(func() {
		for data := range writerCh {
			if _, err := writer.Write(data); err != nil {
				fmt.Fprintln(os.Stderr, "Error writing to output:", err)
				return
			}
			// Flush the writer to ensure data is sent immediately
			writer.Flush()
		}
	})

	// Continue receiving line-delimited requests until the context is done
	var request string
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if part, isPrefix, err := reader.ReadLine(); err != nil {
			if err == io.EOF {
				break
			}
			return err
		} else if isPrefix {
			request += string(part)
			continue
		} else {
			request += string(part)
		}
		if request = strings.TrimSpace(request); request == "" {
			continue
		}

		// Process a request in the background. The payload is captured by
		// value as the loop reuses the request buffer for the next line.
		payload := request
		handlers.Go(func() {
			response, err := server.processRequest(ctx, payload)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				return
			} else if response != nil {
				// Write the response and a newline
				writerCh <- append(response, '\n')
			}
		})

		// Reset the request
		request = ""
	}

	// Return success
	return nil
}

// HandlerFunc registers (or removes) a handler for a method
func (server *Server) HandlerFunc(method string, fn Handler) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if fn == nil {
		delete(server.handlers, method)
	} else {
		server.handlers[method] = fn
	}
}

///////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (server *Server) processRequest(ctx context.Context, payload string) ([]byte, error) {
	// Decode the request
	var request Request
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return nil, err
	}

	// Look up and call the handler
	response := Response{Version: RPCVersion, ID: request.ID}
	if result, err := server.call(ctx, &request); err != nil {
		var target Error
		if errors.As(err, &target) {
			response.Err = &target
		} else {
			response.Err = NewError(0, err.Error())
		}
	} else if result == nil {
		// Notification, no response
		return nil, nil
	} else {
		response.Result = result
	}

	// Return the response
	return json.Marshal(response)
}

func (server *Server) call(ctx context.Context, request *Request) (any, error) {
	server.mu.RLock()
	defer server.mu.RUnlock()

	fn, exists := server.handlers[request.Method]
	if !exists {
		return nil, NewError(ErrorCodeMethodNotFound, "method not found", request.Method)
	}

	return fn(ctx, request.ID, request.Payload)
}

///////////////////////////////////////////////////////////////////////
// HANDLERS

func (server *Server) handleInitialize(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	response := new(ResponseInitialize)
	response.Version = ProtocolVersion
	response.ServerInfo.Name = server.name
	response.ServerInfo.Version = server.version
	response.Capabilities.Prompts = map[string]any{
		"listChanged": true,
	}
	response.Capabilities.Resources = map[string]any{
		"listChanged": true,
		"subscribe":   false,
	}
	response.Capabilities.Tools = map[string]any{
		"listChanged": true,
	}
	return response, nil
}

func (server *Server) handlePing(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	return map[string]any{}, nil
}

func (server *Server) handleInitialized(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	server.initialised = true
	return nil, nil
}

func (server *Server) handleListPrompts(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	response := new(ResponseListPrompts)
	response.Prompts = []any{}
	return response, nil
}

func (server *Server) handleListResources(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	response := new(ResponseListResources)
	response.Resources = []any{}
	return response, nil
}

// List the use-enabled tools in the toolkit
func (server *Server) handleListTools(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	response := new(ResponseListTools)
	response.Tools = []*Tool{}
	if server.toolkit == nil {
		return response, nil
	}
	for _, t := range server.toolkit.Tools() {
		jsonSchema, err := t.Schema()
		if err != nil {
			jsonSchema = nil
		}
		response.Tools = append(response.Tools, &Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: jsonSchema,
		})
	}
	return response, nil
}

func (server *Server) handleCallTool(ctx context.Context, _ any, payload json.RawMessage) (any, error) {
	if server.toolkit == nil {
		return nil, NewError(ErrorCodeMethodNotFound, "no tools configured")
	}

	var req RequestToolCall
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, NewError(ErrorCodeInvalidParameters, err.Error())
	}

	// Run the tool
	result, err := server.toolkit.Run(ctx, req.Name, req.Arguments)
	if err != nil {
		// Return the error as a tool error response (not a JSON-RPC error)
		return &ResponseToolCall{
			Content: []*Content{{Type: "text", Text: err.Error()}},
			Error:   true,
		}, nil
	}

	// Unwrap terminal results so the caller sees the value
	if v, ok := tool.IsFinal(result); ok {
		result = v
	} else if v, ok := tool.IsDone(result); ok {
		result = v
	}

	// Marshal the result to JSON text
	data, err := json.Marshal(result)
	if err != nil {
		return nil, NewError(ErrorInternalError, err.Error())
	}

	return &ResponseToolCall{
		Content: []*Content{{Type: "text", Text: string(data)}},
	}, nil
}
