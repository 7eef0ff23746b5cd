// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/torohelp/deskchat/internal/util"
)

// ErrSessionNotFound is returned when a saved session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// =============================================================================
// STORED SESSION
// =============================================================================

// StoredSession is a persisted chat session.
type StoredSession struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `json:"messages"`

	// Pipeline counters for the session, kept for the status display.
	RejectedTurns int `json:"rejected_turns,omitempty"`
	FailedTurns   int `json:"failed_turns,omitempty"`
}

// SessionMeta is lightweight metadata for listing sessions.
type SessionMeta struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// MessageCount returns the number of messages in the session.
func (s *StoredSession) MessageCount() int {
	return len(s.Messages)
}

// Preview returns a truncated first user message, or empty string.
func (s *StoredSession) Preview() string {
	for _, msg := range s.Messages {
		if msg.Author == AuthorUser && msg.Text != "" {
			return util.TruncateRunes(msg.Text, 80)
		}
	}
	return ""
}

// ExportMarkdown exports the session as a Markdown document.
func (s *StoredSession) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Session " + s.ID + "\n\n")
	sb.WriteString("Created: " + s.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range s.Messages {
		role := "**User**"
		if msg.Author == AuthorAssistant {
			role = "**Assistant**"
		}
		sb.WriteString(role + " (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON exports the session as pretty-printed JSON.
func (s *StoredSession) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store persists sessions as JSON files in a directory.
type Store struct {
	// BaseDir is the directory holding session files.
	BaseDir string

	// MaxSessions limits stored sessions (0 = unlimited). When exceeded,
	// the oldest sessions by update time are pruned.
	MaxSessions int
}

// NewStore creates a store rooted at the given directory.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{BaseDir: baseDir, MaxSessions: 100}, nil
}

// Save persists a session and returns its ID. IDs, summaries and
// timestamps are filled in when missing.
func (s *Store) Save(sess *StoredSession) (string, error) {
	if sess.ID == "" {
		sess.ID = generateSessionID()
	}
	if sess.Summary == "" {
		sess.Summary = summarize(sess)
	}
	sess.UpdatedAt = time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", err
	}

	// Atomic write with fsync so a crash never leaves a torn session file.
	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0644); err != nil {
		return "", err
	}

	if s.MaxSessions > 0 {
		s.enforceLimit()
	}
	return sess.ID, nil
}

// Load retrieves a session by ID.
func (s *Store) Load(id string) (*StoredSession, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var sess StoredSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns metadata for all saved sessions, most recent first.
func (s *Store) List() ([]SessionMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMeta{}, nil
		}
		return nil, err
	}

	var metas []SessionMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			continue // skip corrupted files
		}
		metas = append(metas, SessionMeta{
			ID:           sess.ID,
			Summary:      sess.Summary,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: len(sess.Messages),
			Preview:      sess.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds sessions whose summary, preview or message content
// contains the query (case-insensitive).
func (s *Store) Search(query string) ([]SessionMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []SessionMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Summary), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}

		sess, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Text), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// Delete removes a session by ID.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// enforceLimit removes the oldest sessions if over the limit.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxSessions {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})
	for i := 0; i < len(metas)-s.MaxSessions; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// summarize derives a session summary from the first user message.
func summarize(sess *StoredSession) string {
	for _, msg := range sess.Messages {
		if msg.Author == AuthorUser && msg.Text != "" {
			text := strings.ReplaceAll(msg.Text, "\n", " ")
			text = strings.ReplaceAll(text, "\r", "")
			return util.TruncateRunes(text, 50)
		}
	}
	return "New session"
}

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return "sess_" + hex.EncodeToString(buf)
}
