// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import "testing"

func TestClassify_OnTopic(t *testing.T) {
	tests := []struct {
		input   string
		onTopic bool
	}{
		{"how do I connect to wifi", true},
		{"my PRINTER is jammed", true},
		{"I want to submit a ticket", true},
		{"the VPN keeps dropping", true},
		{"what's the weather today", false},
		{"", false},
	}

	for _, tt := range tests {
		r := Classify(tt.input)
		if r.OnTopic != tt.onTopic {
			t.Errorf("Classify(%q).OnTopic = %v, want %v", tt.input, r.OnTopic, tt.onTopic)
		}
	}
}

func TestClassify_Restricted(t *testing.T) {
	tests := []struct {
		input      string
		restricted bool
	}{
		{"tell me a joke", true},
		{"let's talk politics", true},
		{"this stupid printer", true},
		{"my monitor is flickering", false},
		{"", false},
	}

	for _, tt := range tests {
		r := Classify(tt.input)
		if r.Restricted != tt.restricted {
			t.Errorf("Classify(%q).Restricted = %v, want %v", tt.input, r.Restricted, tt.restricted)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if !Classify("WiFi DOWN").OnTopic {
		t.Error("expected mixed-case support term to match")
	}
	if !Classify("A JOKE please").Restricted {
		t.Error("expected mixed-case restricted term to match")
	}
}

// Substring matching is deliberate: embedded terms match even inside
// unrelated words.
func TestClassify_SubstringSemantics(t *testing.T) {
	if !Classify("the endgame of this migration").Restricted {
		t.Error("expected embedded 'game' to match (substring semantics)")
	}
	if !Classify("hello").Restricted {
		t.Error("expected embedded 'hell' to match (substring semantics)")
	}
}

func TestResult_Allowed(t *testing.T) {
	tests := []struct {
		input   string
		allowed bool
	}{
		{"how do I connect to wifi", true},
		{"tell me a joke", false},
		// Restricted wins even when a support term is present.
		{"tell me a joke about my printer", false},
		{"completely unrelated text", false},
	}

	for _, tt := range tests {
		if got := Classify(tt.input).Allowed(); got != tt.allowed {
			t.Errorf("Classify(%q).Allowed() = %v, want %v", tt.input, got, tt.allowed)
		}
	}
}
