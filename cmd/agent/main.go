package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	// Packages
	kong "github.com/alecthomas/kong"
	agent "github.com/mutablelogic/go-agent"
	anthropic "github.com/mutablelogic/go-agent/pkg/provider/anthropic"
	ollama "github.com/mutablelogic/go-agent/pkg/provider/ollama"
	openai "github.com/mutablelogic/go-agent/pkg/provider/openai"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	session "github.com/mutablelogic/go-agent/pkg/session"
	tool "github.com/mutablelogic/go-agent/pkg/tool"
	client "github.com/mutablelogic/go-client"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debugging
	Debug   bool `name:"debug" help:"Enable debug output"`
	Verbose bool `name:"verbose" help:"Enable verbose output"`

	// State
	StateDir string `name:"state-dir" env:"AGENT_STATE_DIR" help:"Directory for sessions and credentials"`

	// Providers
	Ollama    `embed:"" help:"Ollama configuration"`
	Anthropic `embed:"" help:"Anthropic configuration"`
	OpenAI    `embed:"" help:"OpenAI configuration"`

	// Context
	ctx     context.Context
	clients map[string]agent.Client
	toolkit *tool.Toolkit
	store   schema.SessionStore
	config  *Config
}

type Ollama struct {
	OllamaEndpoint string `env:"OLLAMA_URL" help:"Ollama endpoint"`
}

type Anthropic struct {
	AnthropicKey string `env:"ANTHROPIC_API_KEY" help:"Anthropic API Key"`
}

type OpenAI struct {
	OpenAIKey string `env:"OPENAI_API_KEY" help:"OpenAI API Key"`
}

type CLI struct {
	Globals

	// Models and Tools
	Models ModelsCmd `cmd:"" help:"Return a list of models"`
	Tools  ToolsCmd  `cmd:"" help:"Return a list of tools"`

	// Commands
	Chat    ChatCmd       `cmd:"" help:"Start an interactive chat session"`
	Default SetDefaultCmd `cmd:"" name:"default" help:"Store default provider, model and system prompt"`
	Run     RunCmd        `cmd:"" help:"Run a task to completion"`
	MCP     MCPCmd        `cmd:"" name:"mcp" help:"Serve tools over the Model Context Protocol"`
	Version VersionCmd    `cmd:"" help:"Print version information"`

	// Sessions and Credentials
	SessionCommands    `embed:""`
	CredentialCommands `embed:""`
}

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	// Create a cli parser
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("Agent command line interface"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{},
	)

	// Create a context which cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx

	// Client options
	clientopts := []client.ClientOpt{}
	if cli.Debug || cli.Verbose {
		clientopts = append(clientopts, client.OptTrace(os.Stderr, cli.Verbose))
	}

	// Load API keys from the credential store when not set by flag or
	// environment
	if passphrase := os.Getenv("AGENT_PASSPHRASE"); passphrase != "" {
		if store, err := session.NewFileCredentialStore(cli.Globals.stateDir(), passphrase); err == nil {
			if cli.AnthropicKey == "" {
				cli.AnthropicKey, _ = store.GetKey(ctx, "anthropic")
			}
			if cli.OpenAIKey == "" {
				cli.OpenAIKey, _ = store.GetKey(ctx, "openai")
			}
		}
	}

	// Create provider clients
	cli.Globals.clients = make(map[string]agent.Client, 3)
	if cli.OllamaEndpoint != "" {
		provider, err := ollama.New(cli.OllamaEndpoint, clientopts...)
		cmd.FatalIfErrorf(err)
		cli.Globals.clients[provider.Name()] = provider
	}
	if cli.AnthropicKey != "" {
		provider, err := anthropic.New(cli.AnthropicKey)
		cmd.FatalIfErrorf(err)
		cli.Globals.clients[provider.Name()] = provider
	}
	if cli.OpenAIKey != "" {
		provider, err := openai.New(cli.OpenAIKey)
		cmd.FatalIfErrorf(err)
		cli.Globals.clients[provider.Name()] = provider
	}

	// Make a toolkit
	toolkit, err := tool.NewToolkit()
	cmd.FatalIfErrorf(err)
	cli.Globals.toolkit = toolkit

	// Load stored defaults
	config, err := NewConfig(cli.Globals.stateDir())
	cmd.FatalIfErrorf(err)
	cli.Globals.config = config

	// Run the command
	if err := cmd.Run(&cli.Globals); err != nil {
		cmd.FatalIfErrorf(err)
		return
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Client returns the provider client with the given name, or the only
// configured client when the name is empty
func (g *Globals) Client(name string) (agent.Client, error) {
	if name != "" {
		if provider, exists := g.clients[name]; exists {
			return provider, nil
		}
		return nil, fmt.Errorf("provider %q is not configured", name)
	}
	switch len(g.clients) {
	case 0:
		return nil, fmt.Errorf("no providers configured (set an API key or endpoint)")
	case 1:
		for _, provider := range g.clients {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("multiple providers configured, select one with --provider")
}

// Store returns the session store, creating it on first use
func (g *Globals) Store() (schema.SessionStore, error) {
	if g.store != nil {
		return g.store, nil
	}
	store, err := session.NewFileStore(filepath.Join(g.stateDir(), "sessions"))
	if err != nil {
		return nil, err
	}
	g.store = store
	return store, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (g *Globals) stateDir() string {
	if g.StateDir != "" {
		return g.StateDir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, execName())
	}
	return "." + execName()
}

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	} else {
		return filepath.Base(name)
	}
}
