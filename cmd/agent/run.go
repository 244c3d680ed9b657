package main

import (
	"encoding/json"
	"fmt"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	chat "github.com/mutablelogic/go-agent/pkg/chat"
	task "github.com/mutablelogic/go-agent/pkg/task"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type RunCmd struct {
	Prompt       string `arg:"" help:"Task input text"`
	Provider     string `name:"provider" help:"Provider name" optional:""`
	Model        string `name:"model" help:"Model name" optional:""`
	SystemPrompt string `name:"system" help:"System prompt" optional:""`
	Schema       string `name:"schema" help:"JSON schema the task output must conform to" optional:""`
	MaxTurns     uint   `name:"max-turns" help:"Maximum number of tool-handling turns" default:"10"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunCmd) Run(globals *Globals) error {
	provider, err := globals.Client(firstOf(cmd.Provider, globals.config.Provider))
	if err != nil {
		return err
	}

	// When an output schema is given, the task ends when the model
	// submits output conforming to it
	toolkit := globals.toolkit
	if cmd.Schema != "" {
		var outputSchema jsonschema.Schema
		if err := json.Unmarshal([]byte(cmd.Schema), &outputSchema); err != nil {
			return fmt.Errorf("invalid schema: %w", err)
		}
		if err := toolkit.Register(tool.NewOutputTool(&outputSchema)); err != nil {
			return err
		}
	}

	agent, err := chat.New(provider,
		chat.WithModel(firstOf(cmd.Model, globals.config.Model)),
		chat.WithSystemPrompt(firstOf(cmd.SystemPrompt, globals.config.SystemPrompt)),
		chat.WithToolkit(toolkit),
	)
	if err != nil {
		return err
	}

	t, err := task.New(agent, task.WithMaxTurns(cmd.MaxTurns))
	if err != nil {
		return err
	}
	result, err := t.Run(globals.ctx, cmd.Prompt)
	if err != nil {
		return err
	}

	if globals.Debug {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(result.Content)
	}
	return nil
}
