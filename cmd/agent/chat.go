package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	// Packages
	glamour "github.com/charmbracelet/glamour"
	chat "github.com/mutablelogic/go-agent/pkg/chat"
	opt "github.com/mutablelogic/go-agent/pkg/opt"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	task "github.com/mutablelogic/go-agent/pkg/task"
	term "golang.org/x/term"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ChatCmd struct {
	Provider     string `name:"provider" help:"Provider name" optional:""`
	Model        string `name:"model" help:"Model name" optional:""`
	SystemPrompt string `name:"system" help:"System prompt" optional:""`
	Session      string `name:"session" help:"Session ID or name to resume" optional:""`
	Name         string `name:"name" help:"Name for a new session" optional:""`
	Stream       bool   `name:"stream" help:"Stream responses as they are generated"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ChatCmd) Run(globals *Globals) error {
	provider, err := globals.Client(firstOf(cmd.Provider, globals.config.Provider))
	if err != nil {
		return err
	}
	store, err := globals.Store()
	if err != nil {
		return err
	}

	// Resume or create the session
	var current *schema.Session
	if cmd.Session != "" {
		if current, err = store.GetSession(globals.ctx, cmd.Session); err != nil {
			return fmt.Errorf("session %q: %w", cmd.Session, err)
		}
	} else {
		meta := schema.SessionMeta{Name: cmd.Name}
		meta.Provider = provider.Name()
		meta.Model = firstOf(cmd.Model, globals.config.Model)
		meta.SystemPrompt = firstOf(cmd.SystemPrompt, globals.config.SystemPrompt)
		if current, err = store.CreateSession(globals.ctx, meta); err != nil {
			return err
		}
	}

	// Command-line flags override stored session parameters
	if cmd.Model != "" {
		current.Model = cmd.Model
	}
	if cmd.SystemPrompt != "" {
		current.SystemPrompt = cmd.SystemPrompt
	}

	// Create the agent and restore the conversation
	agent, err := chat.New(provider,
		chat.WithMeta(current.GeneratorMeta),
		chat.WithToolkit(globals.toolkit),
		chat.WithUserInput(readInput),
	)
	if err != nil {
		return err
	}
	for _, message := range current.Conversation.Messages {
		agent.Conversation().Append(message)
	}

	// Chat until the input is exhausted
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	reader := bufio.NewReader(os.Stdin)
	for {
		if interactive {
			fmt.Printf("[%s] > ", current.ID[:8])
		}
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if line = strings.TrimSpace(line); line == "" || line == "exit" {
			break
		}

		if err := cmd.respond(globals, agent, line, interactive); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		// Persist the conversation after each turn
		current.Conversation = *agent.Conversation()
		if _, err := store.UpdateSession(globals.ctx, current); err != nil {
			return err
		}
	}

	// Return success
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// respond sends one line of input through the agent task loop and prints
// the result
func (cmd *ChatCmd) respond(globals *Globals, agent *chat.Agent, line string, interactive bool) error {
	t, err := task.New(agent)
	if err != nil {
		return err
	}

	var opts []opt.Opt
	if cmd.Stream {
		opts = append(opts, opt.WithStream(func(role, text string) {
			if role == schema.RoleAssistant {
				fmt.Print(text)
			}
		}))
	}

	result, err := t.Run(globals.ctx, line, opts...)
	if err != nil {
		return err
	}
	if cmd.Stream {
		fmt.Println()
		return nil
	}

	// Render markdown on interactive terminals
	if interactive {
		if renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			if out, err := renderer.Render(result.Content); err == nil {
				fmt.Print(out)
				return nil
			}
		}
	}
	fmt.Println(result.Content)
	return nil
}

// firstOf returns the first non-empty value
func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// readInput collects a line from the user when a task hands control back
func readInput(_ context.Context, prompt string) (string, error) {
	if prompt != "" {
		fmt.Print(prompt + " ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err == io.EOF {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
