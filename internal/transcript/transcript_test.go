// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"testing"
)

func turn(t *Transcript, user, assistant string) {
	t.Append(NewMessage(AuthorUser, user))
	t.Append(NewMessage(AuthorAssistant, assistant))
}

func TestTranscript_AppendOrder(t *testing.T) {
	tr := New()
	turn(tr, "first question", "first answer")
	turn(tr, "second question", "second answer")

	all := tr.All()
	if len(all) != 4 {
		t.Fatalf("Len = %d, want 4", len(all))
	}
	want := []struct {
		author Author
		text   string
	}{
		{AuthorUser, "first question"},
		{AuthorAssistant, "first answer"},
		{AuthorUser, "second question"},
		{AuthorAssistant, "second answer"},
	}
	for i, w := range want {
		if all[i].Author != w.author || all[i].Text != w.text {
			t.Errorf("message %d = %s %q, want %s %q", i, all[i].Author, all[i].Text, w.author, w.text)
		}
	}
}

func TestTranscript_UniqueIDs(t *testing.T) {
	tr := New()
	turn(tr, "a", "b")
	all := tr.All()
	if all[0].ID == all[1].ID {
		t.Error("expected distinct message IDs")
	}
	if all[0].ID == "" {
		t.Error("expected non-empty message ID")
	}
}

func TestTranscript_AllReturnsCopy(t *testing.T) {
	tr := New()
	turn(tr, "a", "b")

	all := tr.All()
	all[0].Text = "mutated"

	if tr.All()[0].Text != "a" {
		t.Error("All must return a copy; transcript was mutated through it")
	}
}

func TestWindow_BoundsHistory(t *testing.T) {
	tr := New()
	for i := 0; i < 10; i++ {
		turn(tr, "question", "answer")
	}

	window := tr.Window(6)
	if len(window) != 12 {
		t.Fatalf("window size = %d, want 12 (6 turns)", len(window))
	}
	// Oldest-first, ending with the newest message.
	if window[0].Role != "user" {
		t.Errorf("window[0].Role = %q, want user", window[0].Role)
	}
	if last := window[len(window)-1]; last.Role != "assistant" {
		t.Errorf("window tail role = %q, want assistant", last.Role)
	}
}

func TestWindow_ShorterThanLimit(t *testing.T) {
	tr := New()
	turn(tr, "only question", "only answer")

	window := tr.Window(6)
	if len(window) != 2 {
		t.Fatalf("window size = %d, want 2", len(window))
	}
	if window[0].Content != "only question" || window[1].Content != "only answer" {
		t.Errorf("unexpected window contents: %+v", window)
	}
}

func TestWindow_RoleMapping(t *testing.T) {
	tr := New()
	tr.Append(NewMessage(AuthorUser, "u"))
	tr.Append(NewMessage(AuthorAssistant, "a"))

	window := tr.Window(6)
	if window[0].Role != "user" || window[1].Role != "assistant" {
		t.Errorf("role mapping wrong: %+v", window)
	}
}

func TestTranscript_Last(t *testing.T) {
	tr := New()
	if _, ok := tr.Last(); ok {
		t.Error("Last on empty transcript should report false")
	}
	turn(tr, "q", "final")
	last, ok := tr.Last()
	if !ok || last.Text != "final" {
		t.Errorf("Last = %q/%v, want final/true", last.Text, ok)
	}
}

func TestTranscript_Reset(t *testing.T) {
	tr := New()
	turn(tr, "q", "a")
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", tr.Len())
	}
}
