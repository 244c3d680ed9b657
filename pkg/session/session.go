/*
session provides storage backends for conversations and provider
credentials. Sessions can be held in memory or persisted as JSON files,
one file per session, and credentials are sealed with a passphrase
before they reach disk.
*/
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	agent "github.com/mutablelogic/go-agent"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	jsonExt              = ".json"
	DirPerm  os.FileMode = 0o700 // Permission for store directories
	FilePerm os.FileMode = 0o600 // Permission for store files
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newSession validates metadata and assembles a session with a unique ID
func newSession(meta schema.SessionMeta) (*schema.Session, error) {
	if err := validateLabels(meta.Labels); err != nil {
		return nil, err
	}
	now := time.Now()
	return &schema.Session{
		ID:          uuid.New().String(),
		Created:     now,
		Modified:    now,
		SessionMeta: meta,
	}, nil
}

// validateLabels checks that all label keys are valid identifiers
func validateLabels(labels map[string]string) error {
	for k := range labels {
		if !types.IsIdentifier(k) {
			return agent.ErrBadParameter.Withf("invalid label key: %q", k)
		}
	}
	return nil
}

// matches returns true when a session satisfies the listing filter.
// An empty filter matches everything.
func matches(s *schema.Session, req schema.ListSessionRequest) bool {
	if req.Name != "" && s.Name != req.Name {
		return false
	}
	for k, v := range req.Labels {
		if s.Labels[k] != v {
			return false
		}
	}
	return true
}

// paginate applies offset and limit to a session listing, returning the
// page and the total count before paging
func paginate(sessions []*schema.Session, offset, limit uint) ([]*schema.Session, uint) {
	total := uint(len(sessions))
	if offset >= total {
		return nil, total
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < uint(len(sessions)) {
		sessions = sessions[:limit]
	}
	return sessions, total
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - FILE UTILITIES

// ensureDir validates that dir is non-empty and creates it if needed
func ensureDir(dir string) error {
	if dir == "" {
		return agent.ErrBadParameter.With("directory is required")
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return agent.ErrInternalServerError.Withf("mkdir: %v", err)
	}
	return nil
}

// writeJSON serialises v to a JSON file at the given path
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return agent.ErrInternalServerError.Withf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, FilePerm); err != nil {
		return agent.ErrInternalServerError.Withf("write: %v", err)
	}
	return nil
}

// readJSON deserialises a JSON file into v. Returns ErrNotFound when the
// file does not exist, using label to identify the missing resource.
func readJSON(path string, label string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return agent.ErrNotFound.Withf("%s", label)
		}
		return agent.ErrInternalServerError.Withf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return agent.ErrInternalServerError.Withf("unmarshal: %v", err)
	}
	return nil
}

// readJSONDir returns the IDs (filenames without .json extension) of all
// JSON files in dir, skipping subdirectories and non-JSON files
func readJSONDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, agent.ErrInternalServerError.Withf("readdir: %v", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jsonExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), jsonExt))
	}
	return ids, nil
}

// jsonPath returns the file path for an ID in the given directory
func jsonPath(dir, id string) string {
	return filepath.Join(dir, id+jsonExt)
}
