package models

// Identity is an authenticated user as reported by the remote or seeded
// locally.
type Identity struct {
	ID       ID     `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session is the single cached auth record.
type Session struct {
	User      Identity `json:"user"`
	Token     string   `json:"token,omitempty"`
	Offline   bool     `json:"offline,omitempty"`
	CachedAt  string   `json:"cachedAt"`
	ExpiresAt string   `json:"expiresAt,omitempty"`
}

// Credentials holds what offline login needs: the salt and a verifier of
// the key derived from the last successful online password, plus the
// identity to restore.
type Credentials struct {
	Email    string   `json:"email"`
	Salt     []byte   `json:"salt"`
	Verifier []byte   `json:"verifier"`
	User     Identity `json:"user"`
}
