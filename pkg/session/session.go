// Package session provides server-side session storage for the web front end.
//
// A session carries flash messages and a reference to the most recently
// generated diagram, keyed by a random cookie value. Two backends exist:
//   - memory: in-process storage, the default for single-instance deployments
//   - redis: shared storage for multi-instance deployments
//
// Access tokens are intentionally NOT stored in sessions: a token lives only
// for the duration of the generate request that carries it.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the default session duration.
const DefaultTTL = 2 * time.Hour

// Flash categories, matching the two message styles the web UI renders.
const (
	FlashError = "error"
	FlashInfo  = "info"
)

// Flash is a one-shot message displayed on the next page render.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session stores per-browser state between web requests.
type Session struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id,omitempty"`
	Diagram   string    `json:"diagram,omitempty"` // filename of the generated PNG in the output dir
	Flashes   []Flash   `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session has exceeded its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AddFlash appends a flash message to the session.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns the pending flash messages and clears them.
func (s *Session) PopFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Returns ErrNotFound when the session
	// does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any existing one with the same ID.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

// New creates an empty session with a fresh random ID and the given TTL.
func New(ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}
