package main

import (
	"os"
	"path/filepath"

	// Packages
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	yaml "gopkg.in/yaml.v3"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Config holds defaults applied when a command does not set them by flag
type Config struct {
	schema.GeneratorMeta `yaml:",inline"`

	// Path to the config file
	path string
}

//////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// The name of the config file
	configFile = "config.yaml"
)

//////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewConfig loads the config file from the given directory, or returns
// an empty config when the file does not exist
func NewConfig(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	var config Config
	config.path = filepath.Join(dir, configFile)

	// Load the config from the file, ignore a missing file
	_ = config.Load()

	// Return success
	return &config, nil
}

//////////////////////////////////////////////////////////////////
// COMMANDS

type SetDefaultCmd struct {
	Provider     string `name:"provider" help:"Default provider" optional:""`
	Model        string `name:"model" help:"Default model" optional:""`
	SystemPrompt string `name:"system" help:"Default system prompt" optional:""`
}

func (cmd *SetDefaultCmd) Run(globals *Globals) error {
	if cmd.Provider != "" {
		globals.config.Provider = cmd.Provider
	}
	if cmd.Model != "" {
		globals.config.Model = cmd.Model
	}
	if cmd.SystemPrompt != "" {
		globals.config.SystemPrompt = cmd.SystemPrompt
	}
	return globals.config.Save()
}

//////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Load reads the config file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the config file
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}
