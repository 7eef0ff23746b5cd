// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 150 {
		t.Errorf("MaxTokens = %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.OpenAI.Temperature != 0.7 {
		t.Errorf("Temperature = %g", cfg.OpenAI.Temperature)
	}
	if cfg.Chat.HistoryTurns != 6 {
		t.Errorf("HistoryTurns = %d", cfg.Chat.HistoryTurns)
	}
	if cfg.Chat.MinRequestIntervalMS != 2000 {
		t.Errorf("MinRequestIntervalMS = %d", cfg.Chat.MinRequestIntervalMS)
	}
	if cfg.Moderation.FailClosed {
		t.Error("moderation should fail open by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[openai]
model = "gpt-4o-mini"
max_tokens = 200

[moderation]
enabled = true
fail_closed = true

[chat]
history_turns = 4
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 200 {
		t.Errorf("MaxTokens = %d", cfg.OpenAI.MaxTokens)
	}
	if !cfg.Moderation.FailClosed {
		t.Error("FailClosed not loaded")
	}
	if cfg.Chat.HistoryTurns != 4 {
		t.Errorf("HistoryTurns = %d", cfg.Chat.HistoryTurns)
	}

	// Unset fields fall back to defaults.
	if cfg.OpenAI.Temperature != 0.7 {
		t.Errorf("Temperature = %g, want default", cfg.OpenAI.Temperature)
	}
	if cfg.Chat.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want default", cfg.Chat.TimeoutSecs)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"openai": {"model": "gpt-4o"}, "ui": {"theme": "light"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.OpenAI.Model = "gpt-4o"
	cfg.Chat.HistoryTurns = 8

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file permissions = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.OpenAI.Model != "gpt-4o" || loaded.Chat.HistoryTurns != 8 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadFixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	t.Setenv("DESKCHAT_MODEL", "gpt-4o-mini")
	t.Setenv("DESKCHAT_FAIL_CLOSED", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.OpenAI.APIKey != "sk-test-123" {
		t.Errorf("APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if !cfg.Moderation.FailClosed {
		t.Error("FailClosed override not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad temperature", func(c *Config) { c.OpenAI.Temperature = 3.5 }, "openai.temperature"},
		{"negative tokens", func(c *Config) { c.OpenAI.MaxTokens = -1 }, "openai.max_tokens"},
		{"zero history", func(c *Config) { c.Chat.HistoryTurns = 0 }, "chat.history_turns"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"zero timeout", func(c *Config) { c.Chat.TimeoutSecs = 0 }, "chat.timeout_secs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

// TestConfig_ConcurrentAccess exercises Global/SetGlobal under race.
// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
