package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")
	salt1 := []byte("salt-1")
	salt2 := []byte("salt-2")

	key1 := DeriveMasterKey(password, salt1)
	key2 := DeriveMasterKey(password, salt2)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestMakeVerifier_StableAndKeyDependent(t *testing.T) {
	k1 := DeriveMasterKey([]byte("pw"), []byte("salt"))
	k2 := DeriveMasterKey([]byte("pw2"), []byte("salt"))

	assert.Equal(t, MakeVerifier(k1), MakeVerifier(k1))
	assert.NotEqual(t, MakeVerifier(k1), MakeVerifier(k2))
	assert.Len(t, MakeVerifier(k1), 32)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveMasterKey([]byte("pw"), []byte("salt"))

	s1, err := Seal([]byte("hello"), key)
	require.NoError(t, err)
	s2, err := Seal([]byte("hello"), key)
	require.NoError(t, err)
	assert.NotEqual(t, s1.Nonce, s2.Nonce, "nonce must be fresh per call")

	got, err := Open(s1, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestOpen_WrongKeyFails(t *testing.T) {
	s, err := Seal([]byte("secret"), DeriveMasterKey([]byte("a"), []byte("salt")))
	require.NoError(t, err)

	_, err = Open(s, DeriveMasterKey([]byte("b"), []byte("salt")))
	require.Error(t, err)
}

func TestOpen_MalformedNonce(t *testing.T) {
	key := DeriveMasterKey([]byte("a"), []byte("salt"))
	for _, s := range []*Sealed{nil, {Nonce: []byte{1, 2, 3}, Data: make([]byte, 16)}} {
		_, err := Open(s, key)
		require.ErrorIs(t, err, ErrMalformed)
	}
}

func TestSeal_InvalidKeyLength(t *testing.T) {
	_, err := Seal([]byte("x"), []byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestSealJSON_OpenJSON(t *testing.T) {
	type doc struct {
		Title string `json:"title"`
		Views int    `json:"views"`
	}
	key := DeriveMasterKey([]byte("pw"), []byte("salt"))

	s, err := SealJSON(doc{Title: "draft", Views: 3}, key)
	require.NoError(t, err)

	var out doc
	require.NoError(t, OpenJSON(s, key, &out))
	assert.Equal(t, doc{Title: "draft", Views: 3}, out)
}
