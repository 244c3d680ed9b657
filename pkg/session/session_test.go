package session_test

import (
	"context"
	"testing"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	schema "github.com/mutablelogic/go-agent/pkg/schema"
	session "github.com/mutablelogic/go-agent/pkg/session"
	assert "github.com/stretchr/testify/assert"
)

func testStores(t *testing.T) map[string]schema.SessionStore {
	file, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]schema.SessionStore{
		"memory": session.NewMemoryStore(),
		"file":   file,
	}
}

func Test_session_001(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			// Create and retrieve by ID and by name
			s, err := store.CreateSession(context.TODO(), schema.SessionMeta{
				Name: "my-session",
				GeneratorMeta: schema.GeneratorMeta{
					Provider: "mock",
					Model:    "mock-1",
				},
			})
			assert.NoError(err)
			assert.NotEmpty(s.ID)
			assert.False(s.Created.IsZero())

			got, err := store.GetSession(context.TODO(), s.ID)
			assert.NoError(err)
			assert.Equal(s.ID, got.ID)

			got, err = store.GetSession(context.TODO(), "my-session")
			assert.NoError(err)
			assert.Equal(s.ID, got.ID)

			_, err = store.GetSession(context.TODO(), "missing")
			assert.ErrorIs(err, agent.ErrNotFound)
		})
	}
}

func Test_session_002(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			// Update persists conversation changes
			s, err := store.CreateSession(context.TODO(), schema.SessionMeta{Name: "chat"})
			assert.NoError(err)

			message, err := schema.NewMessage(schema.RoleUser, "hello")
			assert.NoError(err)
			s.Conversation.Append(message)

			updated, err := store.UpdateSession(context.TODO(), s)
			assert.NoError(err)
			assert.False(updated.Modified.Before(updated.Created))

			got, err := store.GetSession(context.TODO(), s.ID)
			assert.NoError(err)
			assert.Equal(1, got.Conversation.Len())

			// Delete, then further lookups fail
			assert.NoError(store.DeleteSession(context.TODO(), s.ID))
			_, err = store.GetSession(context.TODO(), s.ID)
			assert.ErrorIs(err, agent.ErrNotFound)
		})
	}
}

func Test_session_003(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			// Listing filters by label and paginates
			for _, env := range []string{"dev", "dev", "prod"} {
				_, err := store.CreateSession(context.TODO(), schema.SessionMeta{
					Labels: map[string]string{"env": env},
				})
				assert.NoError(err)
			}

			all, err := store.ListSessions(context.TODO(), schema.ListSessionRequest{})
			assert.NoError(err)
			assert.Equal(uint(3), all.Count)
			assert.Len(all.Sessions, 3)

			dev, err := store.ListSessions(context.TODO(), schema.ListSessionRequest{
				Labels: map[string]string{"env": "dev"},
			})
			assert.NoError(err)
			assert.Len(dev.Sessions, 2)

			page, err := store.ListSessions(context.TODO(), schema.ListSessionRequest{Offset: 1, Limit: 1})
			assert.NoError(err)
			assert.Equal(uint(3), page.Count)
			assert.Len(page.Sessions, 1)

			// Label keys must be identifiers
			_, err = store.CreateSession(context.TODO(), schema.SessionMeta{
				Labels: map[string]string{"not a key": "x"},
			})
			assert.ErrorIs(err, agent.ErrBadParameter)
		})
	}
}

func Test_session_004(t *testing.T) {
	assert := assert.New(t)

	// Credentials are sealed at rest and round trip by provider
	store, err := session.NewFileCredentialStore(t.TempDir(), "a long passphrase")
	assert.NoError(err)

	_, err = store.GetKey(context.TODO(), "openai")
	assert.ErrorIs(err, agent.ErrNotFound)

	assert.NoError(store.SetKey(context.TODO(), "openai", "sk-test-123"))
	key, err := store.GetKey(context.TODO(), "openai")
	assert.NoError(err)
	assert.Equal("sk-test-123", key)

	assert.NoError(store.DeleteKey(context.TODO(), "openai"))
	_, err = store.GetKey(context.TODO(), "openai")
	assert.ErrorIs(err, agent.ErrNotFound)

	// A short passphrase is rejected
	_, err = session.NewFileCredentialStore(t.TempDir(), "short")
	assert.Error(err)
}
