/*
encrypt provides passphrase-based encryption for stored secrets, such as
provider API keys. Keys are derived with Argon2id and data is sealed
with AES-256-GCM.
*/
package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"strings"

	// Packages
	agent "github.com/mutablelogic/go-agent"
	argon2 "golang.org/x/crypto/argon2"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Key is a 256-bit encryption key derived from a passphrase
type Key []byte

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	// Argon2id parameters (OWASP recommended minimums)
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32 // 256-bit key

	// SaltSize is the length of a random salt in bytes
	SaltSize = 16

	// MinPassphraseLen is the minimum acceptable passphrase length
	MinPassphraseLen = 8
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ValidatePassphrase checks that the passphrase is non-empty, not
// whitespace-only, and at least MinPassphraseLen characters long
func ValidatePassphrase(passphrase string) error {
	trimmed := strings.TrimSpace(passphrase)
	if len(trimmed) == 0 {
		return agent.ErrBadParameter.With("passphrase must not be empty")
	}
	if len(trimmed) < MinPassphraseLen {
		return agent.ErrBadParameter.Withf("passphrase must be at least %d characters", MinPassphraseLen)
	}
	return nil
}

// DeriveKey derives a 256-bit encryption key from a passphrase and salt
// using Argon2id
func DeriveKey(passphrase string, salt []byte) Key {
	return Key(argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, argonKeyLen))
}

// GenerateSalt returns a cryptographically random 16-byte salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Seal generates a fresh salt, derives a key from the passphrase, and
// encrypts plaintext using AES-256-GCM. The returned blob is:
//
//	salt (16 bytes) || nonce (12 bytes) || ciphertext + tag
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	key := DeriveKey(passphrase, salt)
	sealed, err := key.Seal(plaintext)
	if err != nil {
		return nil, err
	}
	// Prepend salt to the sealed output
	return append(salt, sealed...), nil
}

// Open splits the salt from the blob, re-derives the key, and decrypts
// ciphertext produced by Seal
func Open(passphrase string, blob []byte) ([]byte, error) {
	if len(blob) < SaltSize {
		return nil, agent.ErrBadParameter.With("sealed data too short")
	}
	salt, sealed := blob[:SaltSize], blob[SaltSize:]
	key := DeriveKey(passphrase, salt)
	return key.Open(sealed)
}

// Seal encrypts plaintext using AES-256-GCM with a random nonce.
// Returns nonce || ciphertext + tag.
func (k Key) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := k.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext (nonce || ciphertext + tag) using AES-256-GCM
func (k Key) Open(ciphertext []byte) ([]byte, error) {
	gcm, err := k.gcm()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, agent.ErrBadParameter.With("ciphertext too short")
	}
	nonce, data := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, agent.ErrBadParameter.Withf("decrypt: %v", err)
	}
	return plaintext, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (k Key) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
