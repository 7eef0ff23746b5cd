// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Session archive commands for deskchat.
//
// Command: history [subcommand]
// Short:   Search the session archive
// Aliases: archive
//
// Subcommands:
//   search <query>      Full-text search over archived messages
//   recent (default)    Recently archived sessions
//   stats               Archive statistics
//
// The archive is a SQLite database with an FTS5 index over message
// content, built as sessions are saved.

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/torohelp/deskchat/internal/archive"
	"github.com/torohelp/deskchat/internal/config"
	"github.com/torohelp/deskchat/internal/transcript"
	"github.com/torohelp/deskchat/internal/util"
)

// HandleHistoryCommand handles the "history" command with its subcommands.
func HandleHistoryCommand(args Args) error {
	parser := NewArgParser(args.Raw)

	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch parser.Subcommand() {
	case "search":
		return handleHistorySearch(ctx, arc, parser, args.JSON)
	case "", "recent":
		return handleHistoryRecent(ctx, arc, parser, args.JSON)
	case "stats":
		return handleHistoryStats(ctx, arc, args.JSON)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected search, recent or stats")
	}
}

// openArchive opens the archive database at the configured location.
func openArchive() (*archive.Archive, error) {
	if !config.Global().Storage.ArchiveEnabled {
		return nil, NewCommandError("history", "open", "archive is disabled in config", nil)
	}
	path, err := config.ArchivePath()
	if err != nil {
		return nil, WrapError(err, "resolving archive path")
	}
	arc, err := archive.Open(path)
	if err != nil {
		return nil, WrapError(err, "opening archive")
	}
	return arc, nil
}

// =============================================================================
// SEARCH
// =============================================================================

// handleHistorySearch runs a full-text query over archived messages.
func handleHistorySearch(ctx context.Context, arc *archive.Archive, parser *ArgParser, jsonOut bool) error {
	query := JoinPositionalArgs(parser, 1)
	if query == "" {
		return ErrMissingArgument("query", `deskchat history search "printer offline"`)
	}

	limit := parser.FlagIntOrDefault("limit", 20)
	hits, err := arc.Search(ctx, query, limit)
	if err != nil {
		return WrapError(err, "searching archive")
	}

	if jsonOut || parser.BoolFlag("json") {
		return outputJSON(map[string]interface{}{
			"query": query,
			"hits":  hits,
			"count": len(hits),
		})
	}

	if len(hits) == 0 {
		fmt.Println()
		fmt.Printf("No matches for %q.\n", query)
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render(fmt.Sprintf("Matches for %q", query)))
	fmt.Println(strings.Repeat("=", 64))
	fmt.Println()

	for _, hit := range hits {
		who := "assistant"
		if hit.Author == transcript.AuthorUser {
			who = "you"
		}
		fmt.Printf("%s %s %s\n",
			DimStyle.Render(hit.SentAt.Format("2006-01-02 15:04")),
			InfoStyle.Render("["+who+"]"),
			util.TruncateRunes(strings.ReplaceAll(hit.Content, "\n", " "), 70))
		fmt.Printf("  %s %s\n",
			DimStyle.Render("session:"),
			hit.Summary)
		fmt.Println()
	}

	fmt.Printf("%d match(es)\n", len(hits))
	fmt.Println()
	return nil
}

// =============================================================================
// RECENT
// =============================================================================

// handleHistoryRecent lists the most recently archived sessions.
func handleHistoryRecent(ctx context.Context, arc *archive.Archive, parser *ArgParser, jsonOut bool) error {
	limit := parser.FlagIntOrDefault("limit", 10)
	records, err := arc.Recent(ctx, limit)
	if err != nil {
		return WrapError(err, "reading archive")
	}

	if jsonOut || parser.BoolFlag("json") {
		return outputJSON(map[string]interface{}{
			"sessions": records,
			"count":    len(records),
		})
	}

	if len(records) == 0 {
		fmt.Println()
		fmt.Println("The archive is empty. Sessions are recorded when a chat ends.")
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Recently Archived Sessions"))
	fmt.Println(strings.Repeat("=", 64))
	fmt.Println()

	fmt.Printf("%-10s %-30s %-6s %-12s\n", "ID", "Summary", "Msgs", "Updated")
	fmt.Println(strings.Repeat("-", 64))

	for _, r := range records {
		fmt.Printf("%-10s %-30s %-6d %-12s\n",
			util.TruncateRunesNoEllipsis(r.ID, 8),
			util.TruncateRunes(r.Summary, 28),
			r.MessageCount,
			formatRelativeTime(r.UpdatedAt))
	}

	fmt.Println()
	return nil
}

// =============================================================================
// STATS
// =============================================================================

// handleHistoryStats prints archive statistics.
func handleHistoryStats(ctx context.Context, arc *archive.Archive, jsonOut bool) error {
	stats, err := arc.Stats(ctx)
	if err != nil {
		return WrapError(err, "reading archive stats")
	}

	if jsonOut {
		return outputJSON(stats)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Archive Statistics"))
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("%s %s\n", LabelStyle.Render("Sessions:"), formatNumber(stats.SessionCount))
	fmt.Printf("%s %s\n", LabelStyle.Render("Messages:"), formatNumber(stats.MessageCount))
	fmt.Printf("%s %s\n", LabelStyle.Render("Database size:"), formatBytes(stats.DatabaseSize))
	fmt.Println()
	return nil
}
