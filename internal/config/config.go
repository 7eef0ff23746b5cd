// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/torohelp/deskchat/internal/openai"
	"github.com/torohelp/deskchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete deskchat configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// OpenAI API configuration
	OpenAI OpenAIConfig `toml:"openai" json:"openai"`

	// Moderation gate configuration
	Moderation ModerationConfig `toml:"moderation" json:"moderation"`

	// Chat pipeline configuration
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// OpenAIConfig contains API credentials and completion parameters.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Usually set via OPENAI_API_KEY.
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL overrides the API endpoint (for proxies and testing)
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the chat completion model
	Model string `toml:"model" json:"model"`
	// MaxTokens caps response length
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// Temperature controls response randomness (0.0-2.0)
	Temperature float64 `toml:"temperature" json:"temperature"`
}

// ModerationConfig contains moderation gate behavior.
type ModerationConfig struct {
	// Enabled controls whether input and replies pass through moderation
	Enabled bool `toml:"enabled" json:"enabled"`
	// FailClosed treats moderation endpoint failures as flagged.
	// Default is fail-open: an unreachable endpoint does not block the turn.
	FailClosed bool `toml:"fail_closed" json:"fail_closed"`
}

// ChatConfig contains pipeline pacing and history settings.
type ChatConfig struct {
	// HistoryTurns is the number of recent exchanges sent to the model
	HistoryTurns int `toml:"history_turns" json:"history_turns"`
	// MinRequestIntervalMS is the minimum spacing between completion calls
	MinRequestIntervalMS int `toml:"min_request_interval_ms" json:"min_request_interval_ms"`
	// TimeoutSecs bounds a whole pipeline run
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Greeting seeds new sessions with the assistant's opening message
	Greeting bool `toml:"greeting" json:"greeting"`
}

// StorageConfig contains session persistence configuration.
type StorageConfig struct {
	// SessionsDir overrides where session files are stored
	// (empty = ~/.deskchat/sessions)
	SessionsDir string `toml:"sessions_dir" json:"sessions_dir"`
	// MaxSessions limits how many session files are kept
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
	// ArchiveEnabled mirrors finished sessions into the SQLite archive
	ArchiveEnabled bool `toml:"archive_enabled" json:"archive_enabled"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies as formatted markdown
	Markdown bool `toml:"markdown" json:"markdown"`
	// CompactMode suppresses the startup banner
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		OpenAI: OpenAIConfig{
			APIKey:      "",
			BaseURL:     openai.DefaultBaseURL,
			Model:       openai.DefaultModel,
			MaxTokens:   openai.DefaultMaxTokens,
			Temperature: openai.DefaultTemperature,
		},

		Moderation: ModerationConfig{
			Enabled:    true,
			FailClosed: false,
		},

		Chat: ChatConfig{
			HistoryTurns:         6,
			MinRequestIntervalMS: 2000,
			TimeoutSecs:          30,
			Greeting:             true,
		},

		Storage: StorageConfig{
			SessionsDir:    "",
			MaxSessions:    100,
			ArchiveEnabled: true,
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the deskchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".deskchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SessionsDir returns the directory for stored session files.
func (c *Config) SessionsDir() (string, error) {
	if c.Storage.SessionsDir != "" {
		return c.Storage.SessionsDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// ArchivePath returns the path to the session archive database.
func ArchivePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// finishLoad applies env overrides, defaults, and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = defaults.OpenAI.BaseURL
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaults.OpenAI.Model
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = defaults.OpenAI.MaxTokens
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = defaults.OpenAI.Temperature
	}

	if cfg.Chat.HistoryTurns == 0 {
		cfg.Chat.HistoryTurns = defaults.Chat.HistoryTurns
	}
	if cfg.Chat.MinRequestIntervalMS == 0 {
		cfg.Chat.MinRequestIntervalMS = defaults.Chat.MinRequestIntervalMS
	}
	if cfg.Chat.TimeoutSecs == 0 {
		cfg.Chat.TimeoutSecs = defaults.Chat.TimeoutSecs
	}

	if cfg.Storage.MaxSessions == 0 {
		cfg.Storage.MaxSessions = defaults.Storage.MaxSessions
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DESKCHAT_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("DESKCHAT_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("DESKCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("DESKCHAT_MODERATION"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Moderation.Enabled = enabled
		}
	}
	if v := os.Getenv("DESKCHAT_FAIL_CLOSED"); v != "" {
		if closed, err := strconv.ParseBool(v); err == nil {
			c.Moderation.FailClosed = closed
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# deskchat configuration file")
	fmt.Fprintln(file, "# Generated by deskchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file using an atomic write.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.OpenAI.BaseURL != "" {
		if _, err := url.Parse(c.OpenAI.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "openai.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.OpenAI.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "openai.max_tokens",
			Message: "cannot be negative",
		})
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "openai.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %g", c.OpenAI.Temperature),
		})
	}

	if c.Chat.HistoryTurns < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.history_turns",
			Message: "must be at least 1",
		})
	}

	if c.Chat.MinRequestIntervalMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.min_request_interval_ms",
			Message: "cannot be negative",
		})
	}

	if c.Chat.TimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.timeout_secs",
			Message: "must be at least 1",
		})
	}

	if c.Storage.MaxSessions < 1 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_sessions",
			Message: "must be at least 1",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
