package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
)

// Role is the access level granted to an API key
type Role string

const (
	RoleRead  Role = "read"
	RoleWrite Role = "write"
)

// KeyConfig is one configured API key. Repos limits the key to specific
// repositories; empty or containing "*" means unrestricted.
type KeyConfig struct {
	Key   string   `json:"key"`
	Role  Role     `json:"role"`
	Repos []string `json:"repos,omitempty"`
}

// KeyStore holds the immutable API key list loaded at startup. An empty
// store disables authentication entirely.
type KeyStore struct {
	keys []KeyConfig
}

// NewKeyStore parses the raw API_KEYS_JSON value. Entries without a key or
// with an unknown role are dropped; malformed JSON yields an empty store.
func NewKeyStore(rawJSON string) *KeyStore {
	if rawJSON == "" {
		return &KeyStore{}
	}

	var parsed []KeyConfig
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return &KeyStore{}
	}

	valid := make([]KeyConfig, 0, len(parsed))
	for _, k := range parsed {
		if k.Key == "" || (k.Role != RoleRead && k.Role != RoleWrite) {
			continue
		}
		valid = append(valid, k)
	}

	return &KeyStore{keys: valid}
}

// Enabled reports whether any API keys are configured
func (s *KeyStore) Enabled() bool {
	return len(s.keys) > 0
}

// Lookup finds the config for a presented key using constant-time
// comparison to prevent timing attacks
func (s *KeyStore) Lookup(token string) *KeyConfig {
	for i := range s.keys {
		if subtle.ConstantTimeCompare([]byte(s.keys[i].Key), []byte(token)) == 1 {
			return &s.keys[i]
		}
	}
	return nil
}

// Authorize gates one request. Returns nil when the request may proceed.
// Roles are endpoint-scoped, not hierarchical: a write key does not imply
// read access and vice versa.
func (s *KeyStore) Authorize(required Role, token, repo string) *apperrors.AppError {
	if !s.Enabled() {
		return nil
	}

	if token == "" {
		return apperrors.Unauthorized("missing API key")
	}

	key := s.Lookup(token)
	if key == nil {
		return apperrors.Unauthorized("invalid API key")
	}

	if key.Role != required {
		return apperrors.Forbidden(string(required) + " access required")
	}

	if !key.CanAccessRepo(repo) {
		return apperrors.Forbidden("repo access denied")
	}

	return nil
}

// CanAccessRepo reports whether the key's repo scope covers the target.
// An empty target passes; scoping applies only when the caller names a repo.
func (k *KeyConfig) CanAccessRepo(repo string) bool {
	if len(k.Repos) == 0 {
		return true
	}

	for _, r := range k.Repos {
		if r == "*" {
			return true
		}
	}

	if repo == "" {
		return true
	}

	for _, r := range k.Repos {
		if r == repo {
			return true
		}
	}

	return false
}

// ExtractKey pulls the API key from the request: the x-api-key header
// first, then a bearer authorization header.
func ExtractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}
