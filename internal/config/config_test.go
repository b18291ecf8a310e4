package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Remote.DailyLimit != 250 || cfg.Remote.Attempts != 3 {
		t.Fatalf("remote defaults = %+v", cfg.Remote)
	}
	if cfg.Remote.CacheTTL() != time.Hour || cfg.Remote.Timeout() != 30*time.Second {
		t.Fatalf("remote durations = %v / %v", cfg.Remote.CacheTTL(), cfg.Remote.Timeout())
	}
	if cfg.Bus.Queue != "notification_queue" || cfg.Bus.Producer != "news_service" {
		t.Fatalf("bus defaults = %+v", cfg.Bus)
	}
	if cfg.Scheduler.Every() != time.Hour {
		t.Fatalf("scheduler interval = %v", cfg.Scheduler.Every())
	}
	if len(cfg.Sites) == 0 {
		t.Fatal("default sites must not be empty")
	}
}

func TestLoadFromFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
logging:
  level: warn
scheduler:
  interval: 15m
remote:
  dailyLimit: 50
sites:
  - name: onlysite
    scanner: rss
    url: https://example.com/feed.rss
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Scheduler.Every() != 15*time.Minute {
		t.Fatalf("interval = %v", cfg.Scheduler.Every())
	}
	if cfg.Remote.DailyLimit != 50 {
		t.Fatalf("daily limit = %d", cfg.Remote.DailyLimit)
	}
	// Unset file fields keep their defaults.
	if cfg.Remote.Attempts != 3 {
		t.Fatalf("attempts = %d", cfg.Remote.Attempts)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Name != "onlysite" {
		t.Fatalf("sites = %+v", cfg.Sites)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
database:
  dsn: postgres://file/db
gemini:
  apiKey: from-file
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(geminiAPIKeyEnv, "from-env")
	t.Setenv(telegramTokenEnv, "bot-token")

	cfg := Load()
	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Fatalf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Notifications.Telegram.BotToken != "bot-token" {
		t.Fatalf("bot token = %q", cfg.Notifications.Telegram.BotToken)
	}
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
scheduler:
  timezone: Not/AZone
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if got := cfg.Scheduler.Location().String(); got != "UTC" {
		t.Fatalf("location = %q", got)
	}
}

func TestUnreadableFileFallsBackToDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Remote.DailyLimit != 250 {
		t.Fatalf("expected defaults, got %+v", cfg.Remote)
	}
}
