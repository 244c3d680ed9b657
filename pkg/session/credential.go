package session

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"sync"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	encrypt "github.com/mutablelogic/go-agent/pkg/encrypt"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// CredentialStore is the interface for provider API key storage
type CredentialStore interface {
	// GetKey retrieves the API key for a provider
	GetKey(ctx context.Context, provider string) (string, error)

	// SetKey stores (or updates) the API key for a provider
	SetKey(ctx context.Context, provider, key string) error

	// DeleteKey removes the API key for a provider
	DeleteKey(ctx context.Context, provider string) error
}

// FileCredentialStore persists provider API keys in a single JSON file,
// each key sealed with a passphrase before it reaches disk
type FileCredentialStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
}

var _ CredentialStore = (*FileCredentialStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const credentialFile = "credentials" + jsonExt

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewFileCredentialStore creates a credential store in the given
// directory, sealing keys with the given passphrase
func NewFileCredentialStore(dir, passphrase string) (*FileCredentialStore, error) {
	if err := encrypt.ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FileCredentialStore{
		path:       filepath.Join(dir, credentialFile),
		passphrase: passphrase,
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (f *FileCredentialStore) GetKey(_ context.Context, provider string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	credentials, err := f.read()
	if err != nil {
		return "", err
	}
	sealed, ok := credentials[provider]
	if !ok {
		return "", agent.ErrNotFound.Withf("no credential for provider %q", provider)
	}
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", agent.ErrInternalServerError.Withf("decode: %v", err)
	}
	key, err := encrypt.Open(f.passphrase, blob)
	if err != nil {
		return "", err
	}
	return string(key), nil
}

func (f *FileCredentialStore) SetKey(_ context.Context, provider, key string) error {
	if provider == "" {
		return agent.ErrBadParameter.With("provider is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	credentials, err := f.read()
	if err != nil {
		return err
	}
	blob, err := encrypt.Seal(f.passphrase, []byte(key))
	if err != nil {
		return err
	}
	credentials[provider] = base64.StdEncoding.EncodeToString(blob)
	return writeJSON(f.path, credentials)
}

func (f *FileCredentialStore) DeleteKey(_ context.Context, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	credentials, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := credentials[provider]; !ok {
		return agent.ErrNotFound.Withf("no credential for provider %q", provider)
	}
	delete(credentials, provider)
	return writeJSON(f.path, credentials)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// read loads the credential map, treating a missing file as empty
func (f *FileCredentialStore) read() (map[string]string, error) {
	credentials := make(map[string]string)
	if err := readJSON(f.path, "credentials", &credentials); err != nil {
		if errors.Is(err, agent.ErrNotFound) {
			return credentials, nil
		}
		return nil, err
	}
	return credentials, nil
}
