// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import "strings"

// =============================================================================
// KEYWORD LISTS
// =============================================================================

// restrictedKeywords are subjects and profanity the assistant refuses to
// engage with. Matched as lowercase substrings.
var restrictedKeywords = []string{
	"politics", "religion", "movie", "game", "joke",
	"damn", "hell", "idiot", "stupid", "fool",
}

// allowedKeywords is the support vocabulary. A message must contain at
// least one of these to count as on-topic.
var allowedKeywords = []string{
	// Networking
	"network", "wifi", "ethernet", "vpn", "internet", "connectivity",
	"router", "firewall",
	// Hardware
	"projector", "usb", "monitor", "screen", "keyboard", "mouse",
	"printer", "laptop", "computer", "hardware", "device",
	// Ticketing
	"ticket", "ticketing", "support ticket", "issue", "submit ticket",
	"track ticket", "resolve ticket",
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Result is the outcome of classifying one message. It is derived per
// message and never persisted.
type Result struct {
	// Restricted is true if the text contains a deny-listed term.
	Restricted bool

	// OnTopic is true if the text contains at least one support term.
	OnTopic bool
}

// Allowed reports whether the message may proceed into the pipeline.
func (r Result) Allowed() bool {
	return !r.Restricted && r.OnTopic
}

// Classify runs both keyword checks on the given text.
// Pure and synchronous; no failure mode.
func Classify(text string) Result {
	return Result{
		Restricted: ContainsRestricted(text),
		OnTopic:    IsOnTopic(text),
	}
}

// ContainsRestricted reports whether the lowercased text contains any
// deny-listed term as a substring.
func ContainsRestricted(text string) bool {
	return containsAny(text, restrictedKeywords)
}

// IsOnTopic reports whether the lowercased text contains any support
// vocabulary term as a substring.
func IsOnTopic(text string) bool {
	return containsAny(text, allowedKeywords)
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
