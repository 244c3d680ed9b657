package main

import (
	"fmt"
	"os"
	"strings"

	// Packages
	session "github.com/mutablelogic/go-agent/pkg/session"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CredentialCommands struct {
	SetKey    SetKeyCmd    `cmd:"" name:"set-key" help:"Store a provider API key, encrypted with a passphrase"`
	DeleteKey DeleteKeyCmd `cmd:"" name:"delete-key" help:"Remove a stored provider API key"`
}

type SetKeyCmd struct {
	Provider string `arg:"" help:"Provider name (anthropic, openai)"`
	Key      string `name:"key" help:"API key (prompted for when not given)" optional:""`
}

type DeleteKeyCmd struct {
	Provider string `arg:"" help:"Provider name"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *SetKeyCmd) Run(globals *Globals) error {
	key := cmd.Key
	if key == "" {
		value, err := readSecret("API key for " + cmd.Provider + ":")
		if err != nil {
			return err
		}
		key = value
	}
	if key == "" {
		return fmt.Errorf("no API key given")
	}

	store, err := credentialStore(globals)
	if err != nil {
		return err
	}
	if err := store.SetKey(globals.ctx, strings.ToLower(cmd.Provider), key); err != nil {
		return err
	}
	fmt.Println("Stored key for", cmd.Provider)
	return nil
}

func (cmd *DeleteKeyCmd) Run(globals *Globals) error {
	store, err := credentialStore(globals)
	if err != nil {
		return err
	}
	if err := store.DeleteKey(globals.ctx, strings.ToLower(cmd.Provider)); err != nil {
		return err
	}
	fmt.Println("Deleted key for", cmd.Provider)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// credentialStore opens the encrypted credential store, prompting for the
// passphrase when it is not set in the environment
func credentialStore(globals *Globals) (*session.FileCredentialStore, error) {
	passphrase := os.Getenv("AGENT_PASSPHRASE")
	if passphrase == "" {
		value, err := readSecret("Passphrase:")
		if err != nil {
			return nil, err
		}
		passphrase = value
	}
	return session.NewFileCredentialStore(globals.stateDir(), passphrase)
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for input, stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt+" ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
