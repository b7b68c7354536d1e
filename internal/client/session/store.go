// Package session holds the client's signed-in user and bearer token and
// mirrors them into a Storage so a later process can pick them up.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Storage keys.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// User is the client's view of the signed-in account.
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store is safe for concurrent use. A nil storage keeps state in memory only.
type Store struct {
	mu      sync.RWMutex
	user    *User
	token   *string
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// SetUser replaces the user and mirrors it to storage. nil clears it.
func (s *Store) SetUser(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.user = nil
		return s.remove(KeyUser)
	}
	u := *user
	s.user = &u

	if s.storage == nil {
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.storage.Set(KeyUser, string(data))
}

// SetToken replaces the token and mirrors it to storage. nil clears it.
func (s *Store) SetToken(token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil
		return s.remove(KeyToken)
	}
	t := *token
	s.token = &t

	if s.storage == nil {
		return nil
	}
	return s.storage.Set(KeyToken, t)
}

// InitFromLocal loads user and token from storage. Without storage it does
// nothing. A stored user that cannot be decoded is dropped.
func (s *Store) InitFromLocal() error {
	if s.storage == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if token, ok, err := s.storage.Get(KeyToken); err != nil {
		errs = append(errs, err)
	} else if ok {
		s.token = &token
	}

	raw, ok, err := s.storage.Get(KeyUser)
	switch {
	case err != nil:
		errs = append(errs, err)
	case ok:
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode stored user: %w", err))
			_ = s.storage.Remove(KeyUser)
		} else {
			s.user = &u
		}
	}

	return errors.Join(errs...)
}

// ClearAuth forgets user and token in memory and in storage.
func (s *Store) ClearAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.token = nil
	return errors.Join(s.remove(KeyUser), s.remove(KeyToken))
}

func (s *Store) remove(key string) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Remove(key)
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token and whether one is held.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return "", false
	}
	return *s.token, true
}

// IsAuthenticated reports whether a token is held. The user may be unset.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// UserName returns the user's name, or "" when no user is set.
func (s *Store) UserName() string {
	if u := s.User(); u != nil {
		return u.Name
	}
	return ""
}
