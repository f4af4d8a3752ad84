// Package session implements the in-memory bearer-token session store.
//
// State is process-local and deliberately not persisted: a restart logs
// everyone out, and horizontally scaled instances do not share sessions.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Role is the flat role attached to a session. There are exactly two.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// tokenBytes is the entropy of a session token: 32 random bytes,
// hex-encoded to 64 characters.
const tokenBytes = 32

type entry struct {
	role      Role
	expiresAt time.Time
}

// Store owns the token -> session mapping. Construct one per process and
// inject it where needed; all methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]entry
}

// NewStore creates an empty store whose sessions live for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]entry),
	}
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create generates a cryptographically random token, registers a session
// for role, and returns the token. An existing token is never reused.
func (s *Store) Create(role Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token := newToken()
		if _, exists := s.sessions[token]; exists {
			continue
		}
		s.sessions[token] = entry{role: role, expiresAt: time.Now().Add(s.ttl)}
		return token
	}
}

// Lookup returns the role of a currently valid session. ok is false for
// empty, unknown, or expired tokens; an expired entry found here is
// evicted immediately rather than waiting for the next sweep.
func (s *Store) Lookup(token string) (Role, bool) {
	if token == "" {
		return RoleStudent, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return RoleStudent, false
	}
	if !time.Now().Before(e.expiresAt) {
		delete(s.sessions, token)
		return RoleStudent, false
	}
	return e.role, true
}

// IsValid reports whether token identifies a live session.
func (s *Store) IsValid(token string) bool {
	_, ok := s.Lookup(token)
	return ok
}

// RoleOf returns the role of a valid session, or RoleStudent when the
// token does not resolve. Callers that need to distinguish "valid
// student" from "no session" use Lookup instead.
func (s *Store) RoleOf(token string) Role {
	role, _ := s.Lookup(token)
	return role
}

// Delete removes a session. Unknown tokens are a no-op.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Sweep evicts every session with expiresAt <= now and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps on a fixed interval until ctx is cancelled. Start it in its
// own goroutine at process start.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func newToken() string {
	buf := make([]byte, tokenBytes)
	// rand.Read never fails on supported platforms; it panics internally
	// if the kernel source is broken, which is not recoverable anyway.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
