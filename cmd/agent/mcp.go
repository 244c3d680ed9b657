package main

import (
	"fmt"
	"os"
	"strings"

	// Packages
	mcp "github.com/mutablelogic/go-agent/pkg/mcp"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	version "github.com/mutablelogic/go-agent/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type MCPCmd struct{}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *MCPCmd) Run(globals *Globals) error {
	// Log tools that will be exposed
	var names []string
	for _, t := range globals.toolkit.Tools() {
		names = append(names, t.Name())
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "Starting MCP server with no tools configured")
	} else {
		fmt.Fprintln(os.Stderr, "Starting MCP server with tools:", strings.Join(names, ", "))
	}

	// Create the server
	server, err := mcp.New(execName(), version.Version(),
		tool.WithToolkit(globals.toolkit),
	)
	if err != nil {
		return err
	}

	// Run the server on stdio
	return server.RunStdio(globals.ctx, os.Stdin, os.Stdout)
}
