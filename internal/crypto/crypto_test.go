package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ciphertext, nonce, err := Encrypt("owner@pizzapalace.example")
	require.NoError(t, err)
	require.NotEmpty(t, ciphertext)
	require.NotEmpty(t, nonce)

	plaintext, err := Decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, "owner@pizzapalace.example", plaintext)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c1, n1, err := Encrypt("same input")
	require.NoError(t, err)
	c2, n2, err := Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, c1, c2)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	ciphertext, nonce, err := Encrypt("secret")
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = Decrypt(ciphertext, nonce)
	assert.Error(t, err)
}
