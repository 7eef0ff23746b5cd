// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive keeps a searchable SQLite record of past chat sessions.
//
// Sessions live as JSON files in the transcript store; the archive mirrors
// them into a single database so old conversations can be found with
// full-text search instead of grepping files. Recording is idempotent:
// re-recording a session replaces its previous rows.
package archive
