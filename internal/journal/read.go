package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/ontostore/internal/ir"
)

// SessionInfo describes one journaled session.
type SessionInfo struct {
	ID         string    `json:"id"`
	SchemaHash string    `json:"schema_hash"`
	Label      string    `json:"label"`
	StartedAt  time.Time `json:"started_at"`
	Entries    int       `json:"entries"`
}

// Entry is one journaled delivery.
type Entry struct {
	SessionID  string    `json:"session_id"`
	Seq        int64     `json:"seq"`
	Owner      ir.ID     `json:"owner"`
	Properties []string  `json:"properties"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Sessions returns every session ordered by start time, then id.
// Returns an empty slice (not nil) for an empty journal.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.schema_hash, s.label, s.started_at, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		var started string
		if err := rows.Scan(&info.ID, &info.SchemaHash, &info.Label, &started, &info.Entries); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Session returns one session by id. Returns sql.ErrNoRows (wrapped) if it
// does not exist.
func (j *Journal) Session(ctx context.Context, id string) (SessionInfo, error) {
	var info SessionInfo
	var started string
	err := j.db.QueryRowContext(ctx, `
		SELECT s.id, s.schema_hash, s.label, s.started_at,
		       (SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id)
		FROM sessions s
		WHERE s.id = ?
	`, id).Scan(&info.ID, &info.SchemaHash, &info.Label, &started, &info.Entries)
	if err != nil {
		return info, fmt.Errorf("read session %s: %w", id, err)
	}
	if info.StartedAt, err = parseTime(started); err != nil {
		return info, err
	}
	return info, nil
}

// Entries returns every entry of a session ordered by seq.
// Returns an empty slice (not nil) if the session has none.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, owner, properties, recorded_at
		FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return scanEntries(rows)
}

// EntriesFor returns the entries of a session addressed to one owner,
// ordered by seq.
func (j *Journal) EntriesFor(ctx context.Context, sessionID string, owner ir.ID) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, owner, properties, recorded_at
		FROM entries
		WHERE session_id = ? AND owner = ?
		ORDER BY seq ASC
	`, sessionID, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var owner int64
		var props, recorded string
		if err := rows.Scan(&e.SessionID, &e.Seq, &owner, &props, &recorded); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Owner = ir.ID(owner)
		if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
			return nil, fmt.Errorf("decode entry %d properties: %w", e.Seq, err)
		}
		var err error
		if e.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
