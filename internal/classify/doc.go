// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package classify provides keyword-based topic filtering for chat input.
//
// The classifier decides, before any network call is made, whether a
// message is allowed into the support pipeline. Two independent checks
// run on the lowercased text:
//
//   - Restricted: the text mentions an off-limits subject or contains
//     profanity from a fixed deny list.
//   - OnTopic: the text mentions at least one term from the support
//     vocabulary (networking, hardware, ticketing).
//
// Matching is plain substring containment with no tokenization. A term
// embedded inside an unrelated word matches ("game" in "endgame"). That
// imprecision is intentional and load-bearing: downstream behavior is
// calibrated against it, so do not "improve" it with word-boundary
// matching without revisiting the pipeline tests.
package classify
