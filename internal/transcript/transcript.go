// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/torohelp/deskchat/internal/openai"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Author identifies which side of the conversation produced a message.
type Author string

const (
	// AuthorUser marks messages typed by the person seeking support.
	AuthorUser Author = "user"

	// AuthorAssistant marks replies produced by the pipeline (genuine
	// model output or a substituted fallback).
	AuthorAssistant Author = "assistant"
)

// Message is one immutable chat message.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(author Author, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: time.Now(),
	}
}

// Role returns the API wire role for this message's author.
func (m Message) Role() string {
	if m.Author == AuthorUser {
		return "user"
	}
	return "assistant"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is an append-only ordered sequence of messages.
// Safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// All returns a copy of the full message sequence in conversation order.
func (t *Transcript) All() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message and true, or a zero Message and
// false when the transcript is empty.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Window returns the most recent maxTurns turns converted to API wire
// format, oldest-first. A turn is a user/assistant pair, so at most
// 2*maxTurns messages are returned. This caps context growth: without it
// every completion call would eventually overflow the model's context
// budget as the conversation lengthens.
func (t *Transcript) Window(maxTurns int) []openai.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	limit := maxTurns * 2
	start := 0
	if limit > 0 && len(t.messages) > limit {
		start = len(t.messages) - limit
	}

	out := make([]openai.ChatMessage, 0, len(t.messages)-start)
	for _, msg := range t.messages[start:] {
		out = append(out, openai.ChatMessage{Role: msg.Role(), Content: msg.Text})
	}
	return out
}

// Reset discards the conversation and starts an empty one.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
