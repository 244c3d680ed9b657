package session

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FileStore is a file-backed session store. Each session is stored as
// {id}.json in a directory. Safe for concurrent use.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

var _ schema.SessionStore = (*FileStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewFileStore creates a new file-backed session store in the given
// directory, which is created if it does not exist
func NewFileStore(dir string) (*FileStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateSession creates a new session with a unique ID and writes it to disk
func (f *FileStore) CreateSession(_ context.Context, meta schema.SessionMeta) (*schema.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := newSession(meta)
	if err != nil {
		return nil, err
	}
	if err := f.write(s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession retrieves a session by ID or name from disk
func (f *FileStore) GetSession(_ context.Context, id string) (*schema.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.lookup(id)
}

// ListSessions returns sessions from disk matching the request, ordered
// by last modified time (most recent first), with pagination support
func (f *FileStore) ListSessions(_ context.Context, req schema.ListSessionRequest) (*schema.ListSessionResponse, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids, err := readJSONDir(f.dir)
	if err != nil {
		return nil, err
	}

	result := make([]*schema.Session, 0, len(ids))
	for _, id := range ids {
		s, err := f.read(id)
		if err != nil {
			continue // skip corrupt files
		}
		if matches(s, req) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Modified.After(result[j].Modified)
	})

	body, total := paginate(result, req.Offset, req.Limit)
	return &schema.ListSessionResponse{
		Sessions: body,
		Offset:   req.Offset,
		Limit:    req.Limit,
		Count:    total,
	}, nil
}

// UpdateSession persists a session's current state to disk and bumps its
// modified time
func (f *FileStore) UpdateSession(_ context.Context, session *schema.Session) (*schema.Session, error) {
	if session == nil {
		return nil, agent.ErrBadParameter.With("session is required")
	}
	if err := validateLabels(session.Labels); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.read(session.ID); err != nil {
		return nil, err
	}
	session.Modified = time.Now()
	if err := f.write(session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session file by ID or name
func (f *FileStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := os.Remove(jsonPath(f.dir, s.ID)); err != nil {
		return agent.ErrInternalServerError.Withf("remove: %v", err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// write serialises a session to its JSON file
func (f *FileStore) write(s *schema.Session) error {
	return writeJSON(jsonPath(f.dir, s.ID), s)
}

// read deserialises a session from its JSON file
func (f *FileStore) read(id string) (*schema.Session, error) {
	var s schema.Session
	if err := readJSON(jsonPath(f.dir, id), fmt.Sprintf("session %q", id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// lookup reads a session by ID, falling back to a scan by name
func (f *FileStore) lookup(id string) (*schema.Session, error) {
	if s, err := f.read(id); err == nil {
		return s, nil
	}
	ids, err := readJSONDir(f.dir)
	if err != nil {
		return nil, err
	}
	for _, candidate := range ids {
		if s, err := f.read(candidate); err == nil && s.Name != "" && s.Name == id {
			return s, nil
		}
	}
	return nil, agent.ErrNotFound.Withf("session %q", id)
}
