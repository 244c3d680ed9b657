package encrypt_test

import (
	"bytes"
	"testing"

	// Packages
	encrypt "github.com/mutablelogic/go-agent/pkg/encrypt"
	assert "github.com/stretchr/testify/assert"
)

func Test_encrypt_001(t *testing.T) {
	assert := assert.New(t)

	// Round trip
	blob, err := encrypt.Seal("passphrase", []byte("hello, world"))
	assert.NoError(err)
	assert.NotNil(blob)

	plaintext, err := encrypt.Open("passphrase", blob)
	assert.NoError(err)
	assert.Equal("hello, world", string(plaintext))
}

func Test_encrypt_002(t *testing.T) {
	assert := assert.New(t)

	// Wrong passphrase fails to decrypt
	blob, err := encrypt.Seal("correct", []byte("secret"))
	assert.NoError(err)

	_, err = encrypt.Open("wrong", blob)
	assert.Error(err)

	// Truncated blob fails
	_, err = encrypt.Open("correct", []byte("short"))
	assert.Error(err)
}

func Test_encrypt_003(t *testing.T) {
	assert := assert.New(t)

	// Unique salt and nonce: sealing the same data twice differs
	blob1, err := encrypt.Seal("passphrase", []byte("data"))
	assert.NoError(err)
	blob2, err := encrypt.Seal("passphrase", []byte("data"))
	assert.NoError(err)
	assert.False(bytes.Equal(blob1, blob2))
}

func Test_encrypt_004(t *testing.T) {
	assert := assert.New(t)

	// Key-level round trip and cross-key failure
	salt1, err := encrypt.GenerateSalt()
	assert.NoError(err)
	salt2, err := encrypt.GenerateSalt()
	assert.NoError(err)

	key1 := encrypt.DeriveKey("passphrase", salt1)
	key2 := encrypt.DeriveKey("passphrase", salt2)

	sealed, err := key1.Seal([]byte("secret data"))
	assert.NoError(err)

	plaintext, err := key1.Open(sealed)
	assert.NoError(err)
	assert.Equal("secret data", string(plaintext))

	_, err = key2.Open(sealed)
	assert.Error(err)
}

func Test_encrypt_005(t *testing.T) {
	assert := assert.New(t)

	// Passphrase validation
	assert.Error(encrypt.ValidatePassphrase(""))
	assert.Error(encrypt.ValidatePassphrase("   "))
	assert.Error(encrypt.ValidatePassphrase("short"))
	assert.NoError(encrypt.ValidatePassphrase("a longer passphrase"))
}
