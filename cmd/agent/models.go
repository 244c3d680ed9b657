package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	// Packages
	version "github.com/mutablelogic/go-agent/pkg/version"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ModelsCmd struct {
	Provider []string `help:"Only return models from a specific provider"`
}

type ToolsCmd struct{}

type VersionCmd struct{}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ModelsCmd) Run(globals *Globals) error {
	type row struct {
		provider    string
		model       string
		description string
	}
	var rows []row
	for name, provider := range globals.clients {
		if len(cmd.Provider) > 0 && !contains(cmd.Provider, name) {
			continue
		}
		models, err := provider.ListModels(globals.ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, model := range models {
			rows = append(rows, row{provider: name, model: model.Name, description: model.Description})
		}
	}
	if len(rows) == 0 {
		fmt.Println("No models found.")
		return nil
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].provider != rows[b].provider {
			return rows[a].provider < rows[b].provider
		}
		return rows[a].model < rows[b].model
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tDESCRIPTION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.provider, r.model, r.description)
	}
	return w.Flush()
}

func (cmd *ToolsCmd) Run(globals *Globals) error {
	tools := globals.toolkit.Tools()
	if len(tools) == 0 {
		fmt.Println("No tools registered.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\n", t.Name(), t.Description())
	}
	return w.Flush()
}

func (cmd *VersionCmd) Run(globals *Globals) error {
	fmt.Println(string(version.JSON(execName())))
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func contains(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
