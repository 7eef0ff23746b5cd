// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat composes the moderated response pipeline for one support
// conversation.
//
// Each user turn flows through: keyword classification (reject fast,
// before any network call), input moderation, the rate-limiter slot, the
// retrying completion call with a bounded history window, and moderation
// of the reply. Every turn produces exactly two transcript appends — the
// user message immediately on submission, and exactly one assistant
// message (genuine reply, the fixed fallback, or the apology) — so the
// rendered transcript never shows an orphaned user turn.
//
// Turns are single-flight: a mutex serializes Send, so assistant replies
// always land in submission order and the rate-limit clock has a single
// writer.
package chat
