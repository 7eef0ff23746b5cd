// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for deskchat.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdSessions
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	JSON    bool // Output in JSON format

	// Command-specific
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `deskchat - moderated IT helpdesk assistant for the terminal

Deskchat answers IT support questions about networking, printers,
accounts, email and campus software. Every exchange passes through
input classification and content moderation before and after the
completion call, so off-topic and flagged content never reaches
the screen.

Usage:
  deskchat                    Start an interactive chat session (default)
  deskchat chat               Same as above
  deskchat sessions [cmd]     Manage saved sessions
  deskchat history [cmd]      Search the session archive
  deskchat config [cmd]       Configuration
  deskchat version            Show version information
  deskchat help               Show this help

Session Commands:
  deskchat sessions list            List saved sessions
  deskchat sessions show <id>       Show a session transcript
  deskchat sessions export <id>     Export a session
    --format json|md                Export format (default: md)
    --output FILE                   Write to file (default: stdout)
  deskchat sessions delete <id>     Delete a session
    --confirm                       Required confirmation flag

History Commands:
  deskchat history search <query>   Full-text search over archived messages
    --limit N                       Limit results (default: 20)
  deskchat history recent           Recently archived sessions
    --limit N                       Limit results (default: 10)
  deskchat history stats            Archive statistics

Config Commands:
  deskchat config show              Show current configuration
  deskchat config path              Show config file location
  deskchat config init              Write a default config file
  deskchat config set-key           Set the OpenAI API key (prompted, not echoed)
  deskchat config set <key> <val>   Set a configuration value

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override the configured model
  --json          Output listings in JSON format

Chat Commands (inside a session):
  /help           Show in-session commands
  /clear          Clear the conversation
  /save           Save the session now
  /status         Show pipeline and session status
  /history        Show the current transcript
  /quit           Save and exit

Environment:
  OPENAI_API_KEY        API key (overrides config file)
  DESKCHAT_BASE_URL     Override the API base URL
  DESKCHAT_MODEL        Override the configured model
  DESKCHAT_MODERATION   Enable/disable moderation (true/false)

Examples:
  deskchat                            Start chatting
  deskchat --model gpt-4o-mini        Chat with a specific model
  deskchat sessions list              List saved sessions
  deskchat sessions export a1b2 --format md > ticket.md
  deskchat history search "printer offline"
  deskchat config set-key             Store your API key

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("deskchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments and returns the command and args.
// Split from Parse so tests can drive it directly.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	// No command defaults to the interactive chat
	if len(remaining) == 0 {
		return CmdChat, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "chat":
		return CmdChat, parsedArgs

	case "session", "sessions":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdSessions, parsedArgs

	case "history", "archive":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdHistory, parsedArgs

	case "config":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: treat it as the opening chat message
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdChat, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleSessions handles the "sessions" command.
func HandleSessions(args Args) {
	if err := HandleSessionsCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleHistory handles the "history" command.
func HandleHistory(args Args) {
	if err := HandleHistoryCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := HandleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		outputJSON(map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
		})
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
