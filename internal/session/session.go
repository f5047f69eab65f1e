// Package session keeps layout editor drafts between HTTP requests.  A draft
// is the serialized state of a layout.Editor, including a gesture that is
// still in progress, so pointer events can arrive in separate requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-manager/internal/layout"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("layout session not found")
	// ErrConflict is returned when concurrent writers keep racing on the
	// same session and Update runs out of retries.
	ErrConflict = errors.New("layout session modified concurrently")
)

// DefaultTTL is how long an idle draft lives.
const DefaultTTL = 30 * time.Minute

// maxRetries bounds optimistic update attempts.
const maxRetries = 5

// Session is one person's draft of one hall's layout.
type Session struct {
	ID             string          `json:"id"`
	OrganizationID uint64          `json:"organization_id"`
	UserID         uint64          `json:"user_id"`
	HallID         uint64          `json:"hall_id"`
	Version        int64           `json:"version"`
	Dirty          bool            `json:"dirty"`
	Snapshot       layout.Snapshot `json:"snapshot"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// New opens a draft for the given hall tables.
func New(orgID, userID, hallID uint64, ed *layout.Editor) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		HallID:         hallID,
		Snapshot:       ed.Snapshot(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Editor rebuilds the editor from the draft.
func (s *Session) Editor(opts ...layout.Option) *layout.Editor {
	return layout.Restore(s.Snapshot, opts...)
}

// Apply feeds events to the draft editor in order and stores the resulting
// snapshot.  Unknown event types are skipped.  It reports how many events
// were applied and how many drags committed new positions.
func (s *Session) Apply(events []layout.Event) (applied, commits int) {
	ed := s.Editor(layout.WithCommitHook(func([]layout.Table) { commits++ }))
	for _, ev := range events {
		if ed.Apply(ev) {
			applied++
		}
	}
	s.Snapshot = ed.Snapshot()
	if commits > 0 {
		s.Dirty = true
	}
	return applied, commits
}

// OwnedBy reports whether the session was opened by the user in the
// organization.
func (s *Session) OwnedBy(orgID, userID uint64) bool {
	return s.OrganizationID == orgID && s.UserID == userID
}

// Store persists drafts.  Implementations must be safe for concurrent use.
type Store interface {
	// Create saves a new session.
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	// Update loads the session, runs fn on it and saves the result if no
	// other writer changed it in between, retrying otherwise.  An error
	// from fn aborts without saving.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	// Delete removes the session.  Deleting an unknown session is not an
	// error.
	Delete(ctx context.Context, id string) error
}
