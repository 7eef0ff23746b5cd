// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the deskchat CLI.

This package defines the color palette and text styles used throughout
the application. All colors use Lip Gloss AdaptiveColor for automatic
light/dark terminal detection.

# Color System (colors.go)

Primary accent colors:

  - Purple - Assistant replies
  - Cyan - Brand color for info, commands, and user input
  - Emerald - Success states
  - Amber - Warnings and degraded states
  - Rose - Errors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text

# Chat Styles (chat.go)

Prompt and message styles for the interactive chat loop:

	UserPrefix      - "you>" label
	AssistantPrefix - "assistant>" label
	Hint            - Slash-command hints
	Degraded        - In-flight turn indicator

# Usage Example

	import "github.com/torohelp/deskchat/internal/ui/styles"

	fmt.Println(styles.RenderError("completion failed"))
	fmt.Print(styles.UserPrefix.Render("you> "))
*/
package styles
