// Package cryptox holds the key derivation and sealing primitives used for
// offline login verifiers and encrypted local collections.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/devcms/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidKey is returned when a key is not a valid AES key length.
var ErrInvalidKey = errors.New("invalid key length")

// ErrMalformed is returned by Open for a sealed value with a bad nonce.
var ErrMalformed = errors.New("malformed sealed value")

// MakeVerifier hashes a derived key so it can be stored and compared later
// without keeping the key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey derives a 32-byte key from password and salt with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// Sealed is an AES-GCM ciphertext with its nonce, JSON-friendly.
type Sealed struct {
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// Seal encrypts plaintext with AES-GCM under key (16, 24 or 32 bytes).
// A fresh random nonce is generated per call.
func Seal(plaintext, key []byte) (*Sealed, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	return &Sealed{Nonce: nonce, Data: aesgcm.Seal(nil, nonce, plaintext, nil)}, nil
}

// Open reverses Seal.
func Open(s *Sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if s == nil || len(s.Nonce) != aesgcm.NonceSize() {
		return nil, ErrMalformed
	}
	return aesgcm.Open(nil, s.Nonce, s.Data, nil)
}

// SealJSON marshals v to JSON and seals it.
func SealJSON(v any, key []byte) (*Sealed, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)
	return Seal(plaintext, key)
}

// OpenJSON opens s and unmarshals the plaintext into v.
func OpenJSON(s *Sealed, key []byte, v any) error {
	plaintext, err := Open(s, key)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)
	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
