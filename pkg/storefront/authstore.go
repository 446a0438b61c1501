package storefront

import (
	"encoding/json"
	"sync"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
)

const authStorageKey = "jamrock.auth"

// SessionUser is the member snapshot the storefront keeps next to the token.
type SessionUser struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Phone string           `json:"phone,omitempty"`
	Role  enums.MemberRole `json:"role"`
}

type authSnapshot struct {
	Token string       `json:"token"`
	User  *SessionUser `json:"user,omitempty"`
}

// AuthStore holds the bearer token and member snapshot for the session,
// hydrated from Storage so a restart keeps the login.
type AuthStore struct {
	mu      sync.RWMutex
	storage Storage
	token   string
	user    *SessionUser
}

// NewAuthStore builds an auth store over the given storage, loading any
// persisted session. A corrupt snapshot is discarded, not fatal.
func NewAuthStore(storage Storage) *AuthStore {
	s := &AuthStore{storage: storage}
	if storage == nil {
		return s
	}
	raw, ok, err := storage.Load(authStorageKey)
	if err != nil || !ok {
		return s
	}
	var snap authSnapshot
	if json.Unmarshal(raw, &snap) == nil {
		s.token = snap.Token
		s.user = snap.User
	}
	return s
}

// SetSession stores the token and user, persisting them when storage is set.
func (s *AuthStore) SetSession(token string, user *SessionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return s.persistLocked()
}

// Token returns the current bearer token, empty when logged out.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the session member, nil when logged out.
func (s *AuthStore) User() *SessionUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated reports whether both a token and a user are present.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// RequireSession returns the user or the login-required error.
func (s *AuthStore) RequireSession() (*SessionUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Debes iniciar sesión")
	}
	return s.user, nil
}

// Clear wipes the session from memory and storage; used on logout.
func (s *AuthStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if s.storage == nil {
		return nil
	}
	return s.storage.Clear(authStorageKey)
}

func (s *AuthStore) persistLocked() error {
	if s.storage == nil {
		return nil
	}
	raw, err := json.Marshal(authSnapshot{Token: s.token, User: s.user})
	if err != nil {
		return err
	}
	return s.storage.Save(authStorageKey, raw)
}
