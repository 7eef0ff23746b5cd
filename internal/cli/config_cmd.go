// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands for deskchat.
//
// Command: config [subcommand]
// Short:   Configuration management
//
// Subcommands:
//   show (default)      Show current configuration
//   path                Show config file location
//   init                Write a default config file
//   set-key             Set the OpenAI API key (prompted, not echoed)
//   set <key> <value>   Set a configuration value
//
// The API key is never printed; "show" displays only whether one is set.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/torohelp/deskchat/internal/config"
)

// HandleConfigCommand handles the "config" command with its subcommands.
func HandleConfigCommand(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show":
		return handleConfigShow(args.JSON || parser.BoolFlag("json"))
	case "path":
		return handleConfigPath()
	case "init":
		return handleConfigInit()
	case "set-key", "setkey":
		return handleConfigSetKey()
	case "set":
		return handleConfigSet(parser)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected show, path, init, set-key or set")
	}
}

// =============================================================================
// SHOW
// =============================================================================

// handleConfigShow prints the effective configuration.
func handleConfigShow(jsonOut bool) error {
	cfg := config.Global()

	keyStatus := "Not set"
	if cfg.OpenAI.APIKey != "" {
		keyStatus = "Set"
	}

	if jsonOut {
		// Redact the key in JSON output too
		return outputJSON(map[string]interface{}{
			"api_key_set":             cfg.OpenAI.APIKey != "",
			"base_url":                cfg.OpenAI.BaseURL,
			"model":                   cfg.OpenAI.Model,
			"max_tokens":              cfg.OpenAI.MaxTokens,
			"temperature":             cfg.OpenAI.Temperature,
			"moderation":              cfg.Moderation.Enabled,
			"fail_closed":             cfg.Moderation.FailClosed,
			"history_turns":           cfg.Chat.HistoryTurns,
			"min_request_interval_ms": cfg.Chat.MinRequestIntervalMS,
			"timeout_secs":            cfg.Chat.TimeoutSecs,
			"greeting":                cfg.Chat.Greeting,
			"max_sessions":            cfg.Storage.MaxSessions,
			"archive":                 cfg.Storage.ArchiveEnabled,
			"theme":                   cfg.UI.Theme,
			"markdown":                cfg.UI.Markdown,
		})
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("deskchat configuration"))
	fmt.Println(strings.Repeat("=", 50))

	fmt.Println(SectionStyle.Render("OpenAI"))
	fmt.Printf("%s %s\n", LabelStyle.Render("API key:"), keyStatus)
	fmt.Printf("%s %s\n", LabelStyle.Render("Base URL:"), cfg.OpenAI.BaseURL)
	fmt.Printf("%s %s\n", LabelStyle.Render("Model:"), cfg.OpenAI.Model)
	fmt.Printf("%s %d\n", LabelStyle.Render("Max tokens:"), cfg.OpenAI.MaxTokens)
	fmt.Printf("%s %.2f\n", LabelStyle.Render("Temperature:"), cfg.OpenAI.Temperature)

	fmt.Println(SectionStyle.Render("Moderation"))
	fmt.Printf("%s %t\n", LabelStyle.Render("Enabled:"), cfg.Moderation.Enabled)
	fmt.Printf("%s %t\n", LabelStyle.Render("Fail closed:"), cfg.Moderation.FailClosed)

	fmt.Println(SectionStyle.Render("Chat"))
	fmt.Printf("%s %d\n", LabelStyle.Render("History turns:"), cfg.Chat.HistoryTurns)
	fmt.Printf("%s %d ms\n", LabelStyle.Render("Request interval:"), cfg.Chat.MinRequestIntervalMS)
	fmt.Printf("%s %d s\n", LabelStyle.Render("Timeout:"), cfg.Chat.TimeoutSecs)
	fmt.Printf("%s %t\n", LabelStyle.Render("Greeting:"), cfg.Chat.Greeting)

	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("%s %d\n", LabelStyle.Render("Max sessions:"), cfg.Storage.MaxSessions)
	fmt.Printf("%s %t\n", LabelStyle.Render("Archive:"), cfg.Storage.ArchiveEnabled)

	fmt.Println(SectionStyle.Render("UI"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Theme:"), cfg.UI.Theme)
	fmt.Printf("%s %t\n", LabelStyle.Render("Markdown:"), cfg.UI.Markdown)

	fmt.Println()
	return nil
}

// handleConfigPath prints config file locations.
func handleConfigPath() error {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return WrapError(err, "resolving config path")
	}
	jsonPath, _ := config.ConfigPathJSON()

	fmt.Println(tomlPath)
	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		if _, err := os.Stat(jsonPath); err == nil {
			fmt.Printf("%s using legacy JSON config: %s\n",
				DimStyle.Render("note:"), jsonPath)
		} else {
			fmt.Println(DimStyle.Render("(not created yet; run: deskchat config init)"))
		}
	}
	return nil
}

// handleConfigInit writes a default config file.
func handleConfigInit() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return WrapError(err, "resolving config path")
	}

	if _, err := os.Stat(path); err == nil {
		return NewCommandError("config", "init", "config file already exists: "+path, nil)
	}

	if err := config.Save(config.Default()); err != nil {
		return WrapError(err, "writing config")
	}

	fmt.Printf("%s Wrote default config to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

// =============================================================================
// SET
// =============================================================================

// handleConfigSetKey prompts for the API key without echoing it.
func handleConfigSetKey() error {
	if err := RequiresTTY("enter the API key"); err != nil {
		return err
	}

	fmt.Print("OpenAI API key: ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return WrapError(err, "reading key")
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return NewValidationError("api key", "", "key must not be empty")
	}

	cfg := config.Global()
	cfg.OpenAI.APIKey = key
	if err := saveAndReload(cfg); err != nil {
		return err
	}

	fmt.Printf("%s API key saved\n", SuccessStyle.Render("[OK]"))
	return nil
}

// handleConfigSet sets a single configuration value by key.
func handleConfigSet(parser *ArgParser) error {
	key := strings.ToLower(parser.Positional(1))
	value := parser.Positional(2)
	if key == "" || value == "" {
		return ErrMissingArgument("key/value", "deskchat config set model gpt-4o-mini")
	}

	cfg := config.Global()

	switch key {
	case "model":
		cfg.OpenAI.Model = value
	case "base_url":
		cfg.OpenAI.BaseURL = value
	case "max_tokens":
		n, err := ParseIntWithValidation(value, "max_tokens")
		if err != nil {
			return err
		}
		cfg.OpenAI.MaxTokens = n
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return NewValidationError("temperature", value, "must be a number")
		}
		cfg.OpenAI.Temperature = f
	case "moderation":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Moderation.Enabled = b
	case "fail_closed":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Moderation.FailClosed = b
	case "history_turns":
		n, err := ParseIntWithValidation(value, "history_turns")
		if err != nil {
			return err
		}
		cfg.Chat.HistoryTurns = n
	case "min_request_interval_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return NewValidationError("min_request_interval_ms", value, "must be a non-negative integer")
		}
		cfg.Chat.MinRequestIntervalMS = n
	case "timeout_secs":
		n, err := ParseIntWithValidation(value, "timeout_secs")
		if err != nil {
			return err
		}
		cfg.Chat.TimeoutSecs = n
	case "greeting":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Chat.Greeting = b
	case "max_sessions":
		n, err := ParseIntWithValidation(value, "max_sessions")
		if err != nil {
			return err
		}
		cfg.Storage.MaxSessions = n
	case "archive":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Storage.ArchiveEnabled = b
	case "theme":
		cfg.UI.Theme = value
	case "markdown":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.UI.Markdown = b
	default:
		return NewValidationError("key", key,
			"unknown config key (see: deskchat config show)")
	}

	if err := saveAndReload(cfg); err != nil {
		return err
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

// saveAndReload validates, persists, and republishes the config.
func saveAndReload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "saving config")
	}
	config.SetGlobal(cfg)
	return nil
}
