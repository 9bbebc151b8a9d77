package enckey

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is returned for ciphertexts that were tampered with, truncated, or encrypted under another key
// or associated data.
var ErrDecryptionFailed = errors.New("decryption failed")

// Overhead is the ciphertext expansion of Encrypt.
const Overhead = chacha20poly1305.NonceSize + chacha20poly1305.Overhead

// Encrypt seals plaintext with ChaCha20-Poly1305 under a random nonce, which prefixes the returned ciphertext. ad is
// authenticated but not encrypted.
func Encrypt(key SymmetricKey, plaintext []byte, ad []byte, rand io.Reader) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, chacha20poly1305.NonceSize, Overhead+len(plaintext))
	if _, err := io.ReadFull(rand, out); err != nil {
		return nil, fmt.Errorf("failed to sample nonce: %w", err)
	}
	return aead.Seal(out, out, plaintext, ad), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func Decrypt(key SymmetricKey, ciphertext []byte, ad []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, ErrDecryptionFailed
	}
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce, sealed := ciphertext[:chacha20poly1305.NonceSize], ciphertext[chacha20poly1305.NonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
