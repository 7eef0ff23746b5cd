// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the deskchat CLI.
//
// Handles the "deskchat chat" command which provides an interactive REPL
// for the moderated helpdesk assistant.
//
// Command: chat
// Short:   Start an interactive helpdesk session
//
// Examples:
//   deskchat                          Start interactive chat (default model)
//   deskchat chat --model gpt-4o-mini Use a specific model
//   deskchat -q                       Minimal output
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear the conversation
//   /model [name]       Show or switch model
//   /save               Save the session now
//   /status, /s         Show pipeline and session status
//   /history            Show the current transcript
//   /quit, /q           Save and exit
//   Ctrl+C              Cancel the current turn
//   Ctrl+D              Save and exit
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/torohelp/deskchat/internal/archive"
	"github.com/torohelp/deskchat/internal/chat"
	"github.com/torohelp/deskchat/internal/config"
	"github.com/torohelp/deskchat/internal/moderation"
	"github.com/torohelp/deskchat/internal/openai"
	"github.com/torohelp/deskchat/internal/ratelimit"
	"github.com/torohelp/deskchat/internal/transcript"
	"github.com/torohelp/deskchat/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for assistant replies.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a reply with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string, markdown bool) {
	if markdown && IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Println(response)
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// History lives next to the config file
	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists input history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	// 0600: history may contain account names and hostnames
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// passModerator approves everything. Used when moderation is disabled
// in the configuration.
type passModerator struct{}

func (passModerator) Check(ctx context.Context, text string) moderation.Verdict {
	return moderation.Verdict{}
}

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Pipeline
	Orchestrator *chat.Orchestrator
	Gate         *moderation.Gate

	// Persistence
	Store     *transcript.Store
	Archive   *archive.Archive
	SessionID string

	// Configuration
	Config  *config.Config
	Client  *openai.Client
	Model   string
	Quiet   bool
	Verbose bool

	// Tracking
	StartTime time.Time

	// Cancel function for the current turn
	CancelFunc context.CancelFunc

	// Input history handler
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session from config and CLI args.
func NewChatSession(args Args) (*ChatSession, error) {
	cfg := config.Global()

	// Model precedence: CLI arg > config
	model := args.Model
	if model == "" {
		model = cfg.OpenAI.Model
	}

	client := openai.NewClient(cfg.OpenAI.APIKey).
		WithBaseURL(cfg.OpenAI.BaseURL).
		WithModel(model).
		WithMaxTokens(cfg.OpenAI.MaxTokens)

	if !client.IsConfigured() {
		return nil, fmt.Errorf("%w\nSet it with: deskchat config set-key  (or export OPENAI_API_KEY)",
			openai.ErrNotConfigured)
	}

	var moderator chat.Moderator
	gate := moderation.NewGate(client)
	gate.SetFailClosed(cfg.Moderation.FailClosed)
	if cfg.Moderation.Enabled {
		moderator = gate
	} else {
		moderator = passModerator{}
	}

	orch := chat.New(client, moderator, chat.Config{
		WindowTurns:  cfg.Chat.HistoryTurns,
		Timeout:      time.Duration(cfg.Chat.TimeoutSecs) * time.Second,
		SeedGreeting: cfg.Chat.Greeting,
	})
	orch.WithLimiter(ratelimit.New(time.Duration(cfg.Chat.MinRequestIntervalMS) * time.Millisecond))

	sessionsDir, err := cfg.SessionsDir()
	if err != nil {
		return nil, WrapError(err, "resolving sessions directory")
	}
	store, err := transcript.NewStore(sessionsDir)
	if err != nil {
		return nil, WrapError(err, "opening session store")
	}
	store.MaxSessions = cfg.Storage.MaxSessions

	// The archive is best-effort: chat still works if it cannot open
	var arc *archive.Archive
	if cfg.Storage.ArchiveEnabled {
		if path, err := config.ArchivePath(); err == nil {
			if a, err := archive.Open(path); err == nil {
				arc = a
			} else if args.Verbose {
				fmt.Fprintf(os.Stderr, "%s archive unavailable: %v\n",
					warningStyle.Render("[Warning]"), err)
			}
		}
	}

	return &ChatSession{
		Orchestrator: orch,
		Gate:         gate,
		Store:        store,
		Archive:      arc,
		Config:       cfg,
		Client:       client,
		Model:        model,
		Quiet:        args.Quiet,
		Verbose:      args.Verbose,
		StartTime:    time.Now(),
		InputCLI:     NewChatCLI(),
	}, nil
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	session, err := NewChatSession(args)
	if err != nil {
		return err
	}
	defer func() {
		if session.Archive != nil {
			session.Archive.Close()
		}
	}()

	// Hot reload: moderation policy follows config file edits mid-session
	if tomlPath, err := config.ConfigPathTOML(); err == nil {
		if watcher, err := config.NewWatcher(tomlPath, func(cfg *config.Config) {
			config.SetGlobal(cfg)
			session.Gate.SetFailClosed(cfg.Moderation.FailClosed)
		}); err == nil {
			if err := watcher.Watch(); err == nil {
				defer watcher.Close()
			}
		}
	}

	if !session.Quiet {
		printWelcome(session)
	}

	// Ensure input history is saved on exit
	defer session.InputCLI.Close()

	// Set up signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for sig := range sigChan {
			if sig == os.Interrupt || sig == syscall.SIGTERM {
				// First Ctrl+C cancels the in-flight turn
				if session.CancelFunc != nil {
					session.CancelFunc()
					session.CancelFunc = nil
					fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
				}
			}
		}
	}()

	// An unknown leading argument becomes the opening message
	if opening := strings.TrimSpace(strings.Join(args.Raw, " ")); opening != "" {
		if err := processMessage(session, opening); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}

	// Main REPL loop using liner for input history
	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt (liner.ErrPromptAborted) or EOF: save and exit
			fmt.Println()
			finishSession(session)
			return nil
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n",
					errorStyle.Render("[Error]"),
					err)
			}
			if !shouldContinue {
				finishSession(session)
				return nil
			}
			continue
		}

		// Handle exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			finishSession(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n",
				errorStyle.Render("[Error]"),
				err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage runs one turn through the moderated pipeline and prints
// the assistant reply.
func processMessage(session *ChatSession, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	session.CancelFunc = cancel
	defer func() {
		session.CancelFunc = nil
		cancel()
	}()

	startTime := time.Now()

	fmt.Println() // Space before response

	result, err := session.Orchestrator.Send(ctx, input)
	if err != nil {
		if err == chat.ErrEmptyMessage {
			return nil
		}
		return err
	}

	fmt.Print(styles.AssistantPrefix.Render("assistant") + " ")
	displayResponse(result.Reply.Text, session.Config.UI.Markdown)
	fmt.Println()

	if !session.Quiet {
		showTurnInfo(session, result, time.Since(startTime))
	}

	return nil
}

// showTurnInfo displays a one-line status after each reply.
func showTurnInfo(session *ChatSession, result chat.Result, duration time.Duration) {
	switch result.Outcome {
	case chat.OutcomeRejected:
		fmt.Fprintf(os.Stderr, "%s content filtered | %s\n",
			warningStyle.Render("[Filtered]"),
			duration.Round(time.Millisecond))
	case chat.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "%s completion failed | %s\n",
			errorStyle.Render("[Failed]"),
			duration.Round(time.Millisecond))
	default:
		if session.Verbose {
			fmt.Fprintf(os.Stderr, "%s %s | %s\n",
				infoStyle.Render("[Turn]"),
				session.Model,
				duration.Round(time.Millisecond))
		}
	}
}

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

// saveSession writes the current transcript to the session store and,
// when enabled, records it in the searchable archive.
// Returns the stored session, or nil if there was nothing to save.
func saveSession(session *ChatSession) (*transcript.StoredSession, error) {
	messages := session.Orchestrator.Transcript().All()

	// Nothing worth saving until the user has said something
	hasUser := false
	for _, msg := range messages {
		if msg.Author == transcript.AuthorUser {
			hasUser = true
			break
		}
	}
	if !hasUser {
		return nil, nil
	}

	stored := &transcript.StoredSession{
		ID:            session.SessionID,
		Model:         session.Model,
		Messages:      messages,
		RejectedTurns: int(session.Orchestrator.RejectedTurns()),
		FailedTurns:   int(session.Orchestrator.FailedTurns()),
	}

	id, err := session.Store.Save(stored)
	if err != nil {
		return nil, WrapError(err, "saving session")
	}
	session.SessionID = id

	if session.Archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := session.Archive.RecordSession(ctx, stored); err != nil && session.Verbose {
			fmt.Fprintf(os.Stderr, "%s archive record failed: %v\n",
				warningStyle.Render("[Warning]"), err)
		}
	}

	return stored, nil
}

// finishSession saves the transcript and prints the exit summary.
func finishSession(session *ChatSession) {
	stored, err := saveSession(session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
	}
	printExitSummary(session, stored)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/clear", "/c":
		session.Orchestrator.Transcript().Reset()
		session.SessionID = ""
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelCommand(session, args)

	case "/save":
		stored, err := saveSession(session)
		if err != nil {
			return true, err
		}
		if stored == nil {
			fmt.Println(infoStyle.Render("[Nothing to save yet]"))
			return true, nil
		}
		fmt.Printf("%s Session saved: %s\n",
			commandStyle.Render("[OK]"),
			stored.ID)
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/":
		printHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelCommand handles the /model command.
func handleModelCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(session.Model))
		return true, nil
	}

	newModel := args[0]
	session.Client.WithModel(newModel)
	session.Model = newModel
	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"),
		newModel)

	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("deskchat helpdesk assistant"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(session.Model))

	if session.Config.Moderation.Enabled {
		policy := "fail-open"
		if session.Gate.FailClosed() {
			policy = "fail-closed"
		}
		fmt.Printf("%s %s\n",
			infoStyle.Render("Moderation:"),
			commandStyle.Render("On ("+policy+")"))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Moderation:"),
			warningStyle.Render("Off"))
	}

	if session.Archive != nil {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Archive:"),
			commandStyle.Render("On"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Ask about networking, printers, accounts, email or campus software."))
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()

	// The seeded greeting, when configured
	if last, ok := session.Orchestrator.Transcript().Last(); ok && last.Author == transcript.AuthorAssistant {
		fmt.Print(styles.AssistantPrefix.Render("assistant") + " ")
		displayResponse(last.Text, session.Config.UI.Markdown)
		fmt.Println()
	}
}

// printHelp prints available commands.
func printHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation"},
		{"/model [name]", "Show or switch model"},
		{"/save", "Save the session now"},
		{"/status, /s", "Show pipeline and session status"},
		{"/history", "Show the current transcript"},
		{"/quit, /q", "Save and exit"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current turn, Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints pipeline and session status.
func printStatus(session *ChatSession) {
	orch := session.Orchestrator
	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(session.Model))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Stage:"),
		orch.Stage().String())
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages\n",
		infoStyle.Render("History:"),
		orch.Transcript().Len())

	fmt.Println()
	fmt.Println(infoStyle.Render("Pipeline:"))
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Rejected turns:"),
		orch.RejectedTurns())
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Failed turns:"),
		orch.FailedTurns())
	if session.Config.Moderation.Enabled {
		fmt.Printf("  %s %d\n",
			infoStyle.Render("Degraded checks:"),
			session.Gate.DegradedCalls())
	}

	if session.SessionID != "" {
		fmt.Println()
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Saved as:"),
			session.SessionID)
	}

	fmt.Println()
}

// printHistory prints the current transcript.
func printHistory(session *ChatSession) {
	messages := session.Orchestrator.Transcript().All()
	if len(messages) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range messages {
		var who string
		switch msg.Author {
		case transcript.AuthorUser:
			who = lipgloss.NewStyle().Foreground(styles.Cyan).Render("You")
		case transcript.AuthorAssistant:
			who = lipgloss.NewStyle().Foreground(styles.Purple).Render("Assistant")
		default:
			who = string(msg.Author)
		}

		// Rune-based truncation for Unicode safety
		content := msg.Text
		runes := []rune(content)
		if len(runes) > 100 {
			content = string(runes[:100]) + "..."
		}
		content = strings.ReplaceAll(content, "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, who, content)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession, stored *transcript.StoredSession) {
	orch := session.Orchestrator

	if stored == nil {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Messages:"),
		stored.MessageCount())
	if n := orch.RejectedTurns(); n > 0 {
		fmt.Printf("  %s %d\n",
			warningStyle.Render("Filtered:"),
			n)
	}
	if n := orch.FailedTurns(); n > 0 {
		fmt.Printf("  %s %d\n",
			errorStyle.Render("Failed:"),
			n)
	}
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Saved as:"),
		commandStyle.Render(stored.ID))

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
