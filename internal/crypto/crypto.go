package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// Contact details in the registry are encrypted at rest with AES-GCM. The key
// comes from POS_ENCRYPTION_KEY (must be exactly 32 bytes); a fixed
// development key is used when unset.
var encryptionKey = loadKey()

func loadKey() []byte {
	if k := os.Getenv("POS_ENCRYPTION_KEY"); k != "" {
		return []byte(k)
	}
	return []byte("dev-only-32-byte-aes-gcm-key!!!!")
}

// Encrypt encrypts plaintext and returns the ciphertext and nonce.
func Encrypt(plaintext string) ([]byte, []byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("bad encryption key: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return aesgcm.Seal(nil, nonce, []byte(plaintext), nil), nonce, nil
}

// Decrypt reverses Encrypt given the ciphertext and its nonce.
func Decrypt(ciphertext, nonce []byte) (string, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", fmt.Errorf("bad encryption key: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
