package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "test_token"
  bot_username: "ShiniSimfBot"
database:
  path: "test.db"
web:
  base_url: "https://otelshin.example"
auth:
  max_polls: 10
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}

	if cfg.Auth.MaxPolls != 10 {
		t.Errorf("expected max_polls 10, got %d", cfg.Auth.MaxPolls)
	}

	// defaults
	if cfg.Auth.PollInterval != time.Second {
		t.Errorf("expected default poll interval 1s, got %s", cfg.Auth.PollInterval)
	}
	if cfg.Google.SessionsSheet != "telegram_sessions" {
		t.Errorf("expected default sessions sheet, got %s", cfg.Google.SessionsSheet)
	}
	if cfg.Web.DashboardPath != "/dashboard" {
		t.Errorf("expected default dashboard path, got %s", cfg.Web.DashboardPath)
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TG_TOKEN", "secret-token")

	yamlContent := `
telegram:
  bot_token: "${TG_TOKEN}"
  bot_username: "ShiniSimfBot"
database:
  path: "test.db"
web:
  base_url: "https://otelshin.example"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "secret-token" {
		t.Errorf("expected env expansion, got %s", cfg.Telegram.BotToken)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"MissingToken", func(c *Config) { c.Telegram.BotToken = "" }},
		{"MissingUsername", func(c *Config) { c.Telegram.BotUsername = "" }},
		{"MissingDatabase", func(c *Config) { c.Database.Path = "" }},
		{"MissingBaseURL", func(c *Config) { c.Web.BaseURL = "" }},
		{"NegativeMaxPolls", func(c *Config) { c.Auth.MaxPolls = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Telegram: TelegramConfig{BotToken: "t", BotUsername: "u"},
				Database: DatabaseConfig{Path: "db"},
				Web:      WebConfig{BaseURL: "https://x"},
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDashboardURL(t *testing.T) {
	cfg := &Config{Web: WebConfig{BaseURL: "https://otelshin.example", DashboardPath: "/dashboard"}}
	got := cfg.DashboardURL("sess_1_a")
	want := "https://otelshin.example/dashboard?auth=sess_1_a"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
