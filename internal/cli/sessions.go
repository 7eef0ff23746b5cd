// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Saved session management commands for deskchat.
//
// Command: sessions [subcommand]
// Short:   Manage saved chat sessions
// Aliases: session
//
// Subcommands:
//   list (default)      List all saved sessions (aliases: ls, l)
//   show <id>           Show a session transcript
//   export <id>         Export a session (--format json|md, --output FILE)
//   delete <id>         Delete a session (--confirm required)
//
// Session IDs may be given as the full ID, a unique prefix, or the
// 1-based index from "sessions list".

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/torohelp/deskchat/internal/config"
	"github.com/torohelp/deskchat/internal/transcript"
	"github.com/torohelp/deskchat/internal/util"
)

// HandleSessionsCommand handles the "sessions" command with its subcommands.
func HandleSessionsCommand(args Args) error {
	parser := NewArgParser(args.Raw)

	store, err := openSessionStore()
	if err != nil {
		return err
	}

	switch parser.Subcommand() {
	case "", "list", "ls", "l":
		return handleSessionList(store, args.JSON || parser.BoolFlag("json"))
	case "show":
		return handleSessionShow(store, parser)
	case "export":
		return handleSessionExport(store, parser)
	case "delete":
		return handleSessionDelete(store, parser)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected list, show, export or delete")
	}
}

// openSessionStore opens the session store at the configured location.
func openSessionStore() (*transcript.Store, error) {
	cfg := config.Global()
	dir, err := cfg.SessionsDir()
	if err != nil {
		return nil, WrapError(err, "resolving sessions directory")
	}
	store, err := transcript.NewStore(dir)
	if err != nil {
		return nil, WrapError(err, "opening session store")
	}
	store.MaxSessions = cfg.Storage.MaxSessions
	return store, nil
}

// =============================================================================
// SESSION LIST
// =============================================================================

// handleSessionList lists all saved sessions.
func handleSessionList(store *transcript.Store, jsonOut bool) error {
	sessions, err := store.List()
	if err != nil {
		return WrapError(err, "listing sessions")
	}

	if jsonOut {
		return outputJSON(map[string]interface{}{
			"sessions": sessions,
			"count":    len(sessions),
		})
	}

	if len(sessions) == 0 {
		fmt.Println()
		fmt.Println("No saved sessions found.")
		fmt.Println()
		fmt.Println("Sessions are saved when a chat ends or with /save.")
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Saved Sessions"))
	fmt.Println(strings.Repeat("=", 64))
	fmt.Println()

	fmt.Printf("%-4s %-10s %-28s %-6s %-12s\n", "#", "ID", "Summary", "Msgs", "Updated")
	fmt.Println(strings.Repeat("-", 64))

	for i, s := range sessions {
		summary := util.TruncateRunes(s.Summary, 26)

		fmt.Printf("%-4d %-10s %-28s %-6d %-12s\n",
			i+1,
			util.TruncateRunesNoEllipsis(s.ID, 8),
			summary,
			s.MessageCount,
			formatRelativeTime(s.UpdatedAt),
		)
	}

	fmt.Println()
	return nil
}

// =============================================================================
// SESSION SHOW
// =============================================================================

// handleSessionShow prints a full session transcript.
func handleSessionShow(store *transcript.Store, parser *ArgParser) error {
	sess, err := loadSessionArg(store, parser)
	if err != nil {
		return err
	}

	if parser.BoolFlag("json") {
		return outputJSON(sess)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render(sess.Summary))
	fmt.Printf("%s %s\n", LabelStyle.Render("ID:"), sess.ID)
	fmt.Printf("%s %s\n", LabelStyle.Render("Model:"), sess.Model)
	fmt.Printf("%s %s\n", LabelStyle.Render("Created:"), sess.CreatedAt.Format(time.RFC822))
	fmt.Printf("%s %d\n", LabelStyle.Render("Messages:"), sess.MessageCount())
	if sess.RejectedTurns > 0 {
		fmt.Printf("%s %d\n", LabelStyle.Render("Filtered turns:"), sess.RejectedTurns)
	}
	if sess.FailedTurns > 0 {
		fmt.Printf("%s %d\n", LabelStyle.Render("Failed turns:"), sess.FailedTurns)
	}
	fmt.Println()

	for _, msg := range sess.Messages {
		who := "Assistant"
		style := InfoStyle
		if msg.Author == transcript.AuthorUser {
			who = "You"
			style = SuccessStyle
		}
		fmt.Printf("%s %s\n", style.Render(who+":"), msg.Text)
		fmt.Println()
	}

	return nil
}

// =============================================================================
// SESSION EXPORT
// =============================================================================

// handleSessionExport writes a session as markdown or JSON.
func handleSessionExport(store *transcript.Store, parser *ArgParser) error {
	sess, err := loadSessionArg(store, parser)
	if err != nil {
		return err
	}

	format := strings.ToLower(parser.FlagOrDefault("format", "md"))

	var data []byte
	switch format {
	case "md", "markdown":
		data = []byte(sess.ExportMarkdown())
	case "json":
		data, err = sess.ExportJSON()
		if err != nil {
			return WrapError(err, "encoding session")
		}
	default:
		return NewValidationError("format", format, "expected md or json")
	}

	if out := parser.Flag("output"); out != "" {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return WrapError(err, "writing export file")
		}
		fmt.Printf("%s Exported to %s\n", SuccessStyle.Render("[OK]"), out)
		return nil
	}

	fmt.Print(string(data))
	return nil
}

// =============================================================================
// SESSION DELETE
// =============================================================================

// handleSessionDelete removes a session. Requires --confirm.
func handleSessionDelete(store *transcript.Store, parser *ArgParser) error {
	sess, err := loadSessionArg(store, parser)
	if err != nil {
		return err
	}

	if !parser.BoolFlag("confirm") {
		return NewValidationError("confirm", "",
			"deleting a session requires --confirm")
	}

	if err := store.Delete(sess.ID); err != nil {
		return WrapError(err, "deleting session")
	}

	fmt.Printf("%s Deleted session %s\n", SuccessStyle.Render("[OK]"), sess.ID)
	return nil
}

// =============================================================================
// SESSION LOOKUP
// =============================================================================

// loadSessionArg resolves the session reference from the parser's second
// positional argument and loads the session.
func loadSessionArg(store *transcript.Store, parser *ArgParser) (*transcript.StoredSession, error) {
	ref := parser.Positional(1)
	if ref == "" {
		return nil, ErrMissingArgument("session id", "deskchat sessions show <id>")
	}

	id, err := resolveSessionID(store, ref)
	if err != nil {
		return nil, err
	}

	sess, err := store.Load(id)
	if err != nil {
		if err == transcript.ErrSessionNotFound {
			return nil, ErrNotFound("session", ref)
		}
		return nil, WrapError(err, "loading session")
	}
	return sess, nil
}

// resolveSessionID turns a user-supplied reference into a stored session ID.
// Accepts the full ID, a unique prefix, or a 1-based list index.
func resolveSessionID(store *transcript.Store, ref string) (string, error) {
	metas, err := store.List()
	if err != nil {
		return "", WrapError(err, "listing sessions")
	}

	// Numeric reference: index into the list ordering
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(metas) {
			return "", ErrNotFound("session", ref)
		}
		return metas[n-1].ID, nil
	}

	var match string
	for _, m := range metas {
		if m.ID == ref {
			return m.ID, nil
		}
		if strings.HasPrefix(m.ID, ref) {
			if match != "" {
				return "", NewValidationError("session id", ref, "prefix matches multiple sessions")
			}
			match = m.ID
		}
	}
	if match == "" {
		return "", ErrNotFound("session", ref)
	}
	return match, nil
}
