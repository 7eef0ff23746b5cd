// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("something happened")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("output %q missing indicator %q", out, tt.indicator)
			}
			if !strings.Contains(out, "something happened") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

func TestAdaptiveColorsDiffer(t *testing.T) {
	// Light and dark variants must not collapse to the same value,
	// or adaptive detection is pointless.
	if Purple.Light == Purple.Dark {
		t.Error("Purple light and dark variants are identical")
	}
	if TextPrimary.Light == TextPrimary.Dark {
		t.Error("TextPrimary light and dark variants are identical")
	}
}
