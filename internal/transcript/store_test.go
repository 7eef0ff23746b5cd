// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testSession(texts ...string) *StoredSession {
	sess := &StoredSession{Model: "gpt-3.5-turbo"}
	for i, text := range texts {
		author := AuthorUser
		if i%2 == 1 {
			author = AuthorAssistant
		}
		sess.Messages = append(sess.Messages, Message{
			ID:        text,
			Text:      text,
			Author:    author,
			CreatedAt: time.Now(),
		})
	}
	return sess
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	sess := testSession("my wifi is down", "Try restarting the router.")
	id, err := store.Save(sess)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(id, "sess_") {
		t.Errorf("ID = %q, want sess_ prefix", id)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(loaded.Messages))
	}
	if loaded.Summary != "my wifi is down" {
		t.Errorf("Summary = %q, want first user message", loaded.Summary)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_ListMostRecentFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Save(testSession("older", "a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := store.Save(testSession("newer", "a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List = %d sessions, want 2", len(metas))
	}
	if metas[0].Summary != "newer" {
		t.Errorf("first listed = %q, want newest", metas[0].Summary)
	}
}

func TestStore_SearchMessageContent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Save(testSession("printer trouble", "Check the PROJECTOR cable.")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save(testSession("vpn question", "Use the client.")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	hits, err := store.Search("projector")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Summary != "printer trouble" {
		t.Errorf("Search hits = %+v, want the printer session", hits)
	}
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	id, err := store.Save(testSession("q", "a"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_EnforcesLimit(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	store.MaxSessions = 2

	for _, summary := range []string{"one", "two", "three"} {
		if _, err := store.Save(testSession(summary, "a")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("sessions after pruning = %d, want 2", len(metas))
	}
	for _, meta := range metas {
		if meta.Summary == "one" {
			t.Error("oldest session should have been pruned")
		}
	}
}

func TestExportMarkdown(t *testing.T) {
	sess := testSession("wifi down", "Restart the router.")
	sess.ID = "sess_test"
	sess.CreatedAt = time.Now()

	md := sess.ExportMarkdown()
	for _, want := range []string{"# Session sess_test", "**User**", "**Assistant**", "wifi down", "Restart the router."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
