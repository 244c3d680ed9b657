package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-agent/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type SessionCommands struct {
	ListSessions  ListSessionsCmd  `cmd:"" name:"sessions" help:"List stored chat sessions"`
	ShowSession   ShowSessionCmd   `cmd:"" name:"session" help:"Show session details"`
	DeleteSession DeleteSessionCmd `cmd:"" name:"delete-session" help:"Delete a stored session"`
}

type ListSessionsCmd struct {
	Name   string `name:"name" help:"Filter by session name" optional:""`
	Offset uint   `name:"offset" help:"Offset into the result set" optional:""`
	Limit  uint   `name:"limit" help:"Maximum number of sessions to return" optional:""`
}

type ShowSessionCmd struct {
	ID string `arg:"" name:"id" help:"Session ID or name"`
}

type DeleteSessionCmd struct {
	ID string `arg:"" name:"id" help:"Session ID or name to delete"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListSessionsCmd) Run(globals *Globals) error {
	store, err := globals.Store()
	if err != nil {
		return err
	}

	response, err := store.ListSessions(globals.ctx, schema.ListSessionRequest{
		Name:   cmd.Name,
		Offset: cmd.Offset,
		Limit:  cmd.Limit,
	})
	if err != nil {
		return err
	}
	if len(response.Sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tMODEL\tMESSAGES\tTOKENS\tMODIFIED")
	for _, s := range response.Sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.Name,
			s.Provider,
			s.Model,
			s.Conversation.Len(),
			s.Conversation.Tokens(),
			humanTime(s.Modified),
		)
	}
	return w.Flush()
}

func (cmd *ShowSessionCmd) Run(globals *Globals) error {
	store, err := globals.Store()
	if err != nil {
		return err
	}

	s, err := store.GetSession(globals.ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("session %q: %w", cmd.ID, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (cmd *DeleteSessionCmd) Run(globals *Globals) error {
	store, err := globals.Store()
	if err != nil {
		return err
	}
	if err := store.DeleteSession(globals.ctx, cmd.ID); err != nil {
		return fmt.Errorf("session %q: %w", cmd.ID, err)
	}
	fmt.Println("Deleted", cmd.ID)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func humanTime(t time.Time) string {
	switch d := time.Since(t); {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
