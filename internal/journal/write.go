package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/notify"
)

// timeFormat is the stored timestamp layout. Fixed-width so text order
// matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Session appends the deliveries of one store lifetime.
//
// A Session is fed from the store's goroutine through Handler; it is not
// safe for concurrent Append calls.
type Session struct {
	journal *Journal
	id      string
	seq     int64
}

// BeginSession records a new session and returns its writer.
// schemaHash is the registry fingerprint the session runs under.
func (j *Journal) BeginSession(ctx context.Context, schemaHash, label string) (*Session, error) {
	id := j.gen.Generate()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, schema_hash, label, started_at)
		VALUES (?, ?, ?, ?)
	`, id, schemaHash, label, formatTime(j.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{journal: j, id: id}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Seq returns the seq of the last appended entry (0 before the first).
func (s *Session) Seq() int64 {
	return s.seq
}

// Append writes one delivered change.
//
// Properties are stored as canonical JSON so two sessions with the same
// deliveries hold byte-identical rows.
func (s *Session) Append(ctx context.Context, c notify.Change) error {
	props, err := ir.MarshalCanonical(c.Properties)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	seq := s.seq + 1
	_, err = s.journal.db.ExecContext(ctx, `
		INSERT INTO entries (session_id, seq, owner, properties, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`, s.id, seq, int64(c.Owner), string(props), formatTime(s.journal.clock.Now()))
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	s.seq = seq
	return nil
}

// Handler returns a notification sink for notify.Notifier.SubscribeAll.
// Append failures are returned to the notifier, which logs them.
func (s *Session) Handler(ctx context.Context) notify.Handler {
	return func(c notify.Change) error {
		return s.Append(ctx, c)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
