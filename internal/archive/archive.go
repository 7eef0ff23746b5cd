// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/torohelp/deskchat/internal/transcript"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrEmptySession  = errors.New("session has no messages")
)

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive records finished sessions into a local SQLite database.
type Archive struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens (or creates) the archive database at path.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	a := &Archive{db: db, path: path}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return a, nil
}

func (a *Archive) initSchema() error {
	if _, err := a.db.Exec(Schema); err != nil {
		return err
	}
	_, err := a.db.Exec(InitMetadata)
	return err
}

// Close closes the archive and releases resources.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// =============================================================================
// RECORDING
// =============================================================================

// RecordSession writes a session and all of its messages to the archive.
// Re-recording an existing session replaces its previous rows.
func (a *Archive) RecordSession(ctx context.Context, sess *transcript.StoredSession) error {
	if sess == nil || len(sess.Messages) == 0 {
		return ErrEmptySession
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// Cascade removes any previously recorded messages for this session.
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sess.ID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, summary, model, created_at, updated_at, message_count, rejected_turns, failed_turns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Summary, sess.Model, sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
		len(sess.Messages), sess.RejectedTurns, sess.FailedTurns)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i, msg := range sess.Messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, message_id, seq, author, content, sent_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sess.ID, msg.ID, i, string(msg.Author), msg.Text, msg.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its messages from the archive.
func (a *Archive) DeleteSession(ctx context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// SessionRecord is a recorded session without its message bodies.
type SessionRecord struct {
	ID            string
	Summary       string
	Model         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	MessageCount  int
	RejectedTurns int
	FailedTurns   int
}

// Hit is one full-text search match.
type Hit struct {
	SessionID string
	Summary   string
	Author    transcript.Author
	Content   string
	SentAt    time.Time
}

// Recent returns the most recently updated sessions, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, summary, model, created_at, updated_at, message_count, rejected_turns, failed_turns
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var model sql.NullString
		var created, updated int64

		if err := rows.Scan(&rec.ID, &rec.Summary, &model, &created, &updated,
			&rec.MessageCount, &rec.RejectedTurns, &rec.FailedTurns); err != nil {
			continue
		}
		rec.Model = model.String
		rec.CreatedAt = time.Unix(created, 0)
		rec.UpdatedAt = time.Unix(updated, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Search finds messages whose content matches the query, newest first.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT m.session_id, s.summary, m.author, m.content, m.sent_at
		FROM messages_fts fts
		JOIN messages m ON m.id = fts.rowid
		JOIN sessions s ON s.id = m.session_id
		WHERE messages_fts MATCH ?
		ORDER BY m.sent_at DESC
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		var author string
		var sentAt int64

		if err := rows.Scan(&hit.SessionID, &hit.Summary, &author, &hit.Content, &sentAt); err != nil {
			continue
		}
		hit.Author = transcript.Author(author)
		hit.SentAt = time.Unix(sentAt, 0)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes the archive contents.
type Stats struct {
	SessionCount int
	MessageCount int
	DatabaseSize int64
}

// Stats returns current archive statistics.
func (a *Archive) Stats(ctx context.Context) (Stats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var stats Stats
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&stats.SessionCount); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&stats.MessageCount); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if info, err := os.Stat(a.path); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

// =============================================================================
// FTS QUERY
// =============================================================================

// buildFTSQuery builds an FTS5 query from user input
func buildFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	// Quote each term to escape FTS5 operators, with a prefix match on
	// the last term so partially typed words still match.
	terms := strings.Fields(query)
	for i, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		if i == len(terms)-1 {
			terms[i] = `"` + term + `"*`
		} else {
			terms[i] = `"` + term + `"`
		}
	}
	return strings.Join(terms, " ")
}
