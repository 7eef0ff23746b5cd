// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ratelimit enforces a minimum spacing between completion
// requests.
//
// The limiter is an explicit value owned by the orchestrator rather than
// hidden package state, so a conversation session gets exactly one clock
// and tests can substitute their own. Internally it reserves slots from a
// golang.org/x/time/rate limiter using explicit timestamps, which makes
// the reservation atomic: two concurrent callers can never both see a
// stale "last request" time.
package ratelimit
