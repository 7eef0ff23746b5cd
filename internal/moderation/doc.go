// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package moderation wraps the moderation endpoint in policy.
//
// The gate issues one moderation call per check and converts every
// outcome into a Verdict; it never returns an error to the caller. When
// the endpoint is unreachable or returns garbage, the verdict defaults
// to the configured failure policy:
//
//   - fail-open (default, matching the original client): the text is
//     treated as not flagged so an outage never blocks the user. This is
//     a deliberate, risky choice: an unreachable moderation service
//     silently lets all content through. Every degradation is logged.
//   - fail-closed: the text is treated as flagged.
package moderation
