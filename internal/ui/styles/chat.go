// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// CHAT STYLES
// =============================================================================

// UserPrefix labels lines typed by the user.
var UserPrefix = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// AssistantPrefix labels assistant replies.
var AssistantPrefix = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// AssistantText styles plain (non-markdown) assistant output.
var AssistantText = lipgloss.NewStyle().
	Foreground(TextPrimary)

// Timestamp styles message timestamps.
var Timestamp = lipgloss.NewStyle().
	Foreground(TextMuted)

// Banner styles the startup banner.
var Banner = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// Hint styles slash-command hints and secondary prompts.
var Hint = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Italic(true)

// Degraded styles the typing/progress indicator shown while a turn is
// in flight.
var Degraded = lipgloss.NewStyle().
	Foreground(Amber)
