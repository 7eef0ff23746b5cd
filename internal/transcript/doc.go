// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the conversation state for a chat session.
//
// # Key Types
//
//   - Message: one immutable chat message (user or assistant)
//   - Transcript: append-only in-memory message sequence; the source of
//     truth for the rolling context window sent to the completion API
//   - Store: JSON-file persistence for finished sessions under
//     ~/.deskchat/sessions/, with listing, search and export
//
// # Invariants
//
// The transcript is append-only: no message is ever mutated or removed
// (Reset starts a new conversation, it does not edit the old one).
// Insertion order is conversation order.
package transcript
