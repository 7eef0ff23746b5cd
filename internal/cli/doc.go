// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for deskchat.
//
// This package implements all CLI commands for the deskchat helpdesk
// assistant, covering the interactive chat session plus the supporting
// commands for saved sessions, the searchable archive, and configuration.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ChatSession: State for one interactive chat run
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	case cli.CmdSessions:
//	    cli.HandleSessions(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - chat: Interactive helpdesk session (default command)
//   - sessions: List, show, export and delete saved sessions
//   - history: Full-text search over the session archive
//   - config: Configuration management
//   - version: Version information
//
// Listing commands support a --json flag for scripted use.
package cli
