package session

import (
	"context"
	"sort"
	"sync"
	"time"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// MemoryStore is an in-memory session store, safe for concurrent use
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*schema.Session
}

var _ schema.SessionStore = (*MemoryStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewMemoryStore creates a new empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*schema.Session),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateSession creates a new session with a unique ID and returns it
func (m *MemoryStore) CreateSession(_ context.Context, meta schema.SessionMeta) (*schema.Session, error) {
	s, err := newSession(meta)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s

	return s, nil
}

// GetSession retrieves a session by ID or name
func (m *MemoryStore) GetSession(_ context.Context, id string) (*schema.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	for _, s := range m.sessions {
		if s.Name != "" && s.Name == id {
			return s, nil
		}
	}
	return nil, agent.ErrNotFound.Withf("session %q", id)
}

// ListSessions returns sessions matching the request, ordered by last
// modified time (most recent first), with pagination support
func (m *MemoryStore) ListSessions(_ context.Context, req schema.ListSessionRequest) (*schema.ListSessionResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*schema.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
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

// UpdateSession replaces a stored session and bumps its modified time
func (m *MemoryStore) UpdateSession(_ context.Context, session *schema.Session) (*schema.Session, error) {
	if session == nil {
		return nil, agent.ErrBadParameter.With("session is required")
	}
	if err := validateLabels(session.Labels); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return nil, agent.ErrNotFound.Withf("session %q", session.ID)
	}
	session.Modified = time.Now()
	m.sessions[session.ID] = session
	return session, nil
}

// DeleteSession removes a session by ID or name
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID)
	return nil
}
