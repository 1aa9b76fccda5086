package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Forum.Name != "9gag" {
		t.Errorf("Expected default forum to be 9gag, got %s", config.Forum.Name)
	}

	if config.Scroll.MaxScrollTime != 60*time.Second {
		t.Errorf("Expected default scroll budget to be 60s, got %v", config.Scroll.MaxScrollTime)
	}

	if !config.Scroll.Headless {
		t.Error("Expected headless to default to true")
	}

	if config.Fetch.RequestsPerMinute != 60 {
		t.Errorf("Expected default requests per minute to be 60, got %d", config.Fetch.RequestsPerMinute)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("FORUMSCRAPER_MAX_SCROLL_SECONDS", "120")
	os.Setenv("FORUMSCRAPER_HEADLESS", "false")
	os.Setenv("FORUMSCRAPER_DATABASE_PATH", "/tmp/test.db")
	os.Setenv("FORUMSCRAPER_MEDIA_DIR", "/tmp/test-media")
	os.Setenv("FORUMSCRAPER_REQUESTS_PER_MINUTE", "30")
	os.Setenv("FORUMSCRAPER_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("FORUMSCRAPER_MAX_SCROLL_SECONDS")
		os.Unsetenv("FORUMSCRAPER_HEADLESS")
		os.Unsetenv("FORUMSCRAPER_DATABASE_PATH")
		os.Unsetenv("FORUMSCRAPER_MEDIA_DIR")
		os.Unsetenv("FORUMSCRAPER_REQUESTS_PER_MINUTE")
		os.Unsetenv("FORUMSCRAPER_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Scroll.MaxScrollTime != 120*time.Second {
		t.Errorf("Expected scroll budget 120s, got %v", config.Scroll.MaxScrollTime)
	}

	if config.Scroll.Headless {
		t.Error("Expected headless to be false")
	}

	if config.Storage.DatabasePath != "/tmp/test.db" {
		t.Errorf("Expected database path /tmp/test.db, got %s", config.Storage.DatabasePath)
	}

	if config.Fetch.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute 30, got %d", config.Fetch.RequestsPerMinute)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvRejectsBadBudget(t *testing.T) {
	os.Setenv("FORUMSCRAPER_MAX_SCROLL_SECONDS", "not-a-number")
	defer os.Unsetenv("FORUMSCRAPER_MAX_SCROLL_SECONDS")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for invalid scroll budget")
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
forum:
  name: 9gag
scroll:
  headless: false
storage:
  database_path: /tmp/from-file.db
  media_directory: /tmp/from-file-media
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Scroll.Headless {
		t.Error("Expected headless to be false")
	}

	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}

	if config.Storage.DatabasePath != "/tmp/from-file.db" {
		t.Errorf("Expected database path /tmp/from-file.db, got %s", config.Storage.DatabasePath)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	config.Forum.Name = "unknown-forum"
	if err := config.Validate(); err == nil {
		t.Error("Expected error for unsupported forum")
	}

	config = DefaultConfig()
	config.Scroll.MaxScrollTime = 0
	if err := config.Validate(); err == nil {
		t.Error("Expected error for zero scroll budget")
	}

	config = DefaultConfig()
	config.Logging.Level = "loud"
	if err := config.Validate(); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestHomePageURL(t *testing.T) {
	config := DefaultConfig()
	if got := config.HomePageURL(); got != "https://9gag.com" {
		t.Errorf("Expected registry URL, got %s", got)
	}

	config.Forum.HomePageURL = "http://localhost:8080"
	if got := config.HomePageURL(); got != "http://localhost:8080" {
		t.Errorf("Expected override URL, got %s", got)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"max-scroll-seconds": 45,
		"headless":           false,
		"database":           "/tmp/flags.db",
	})

	if config.Scroll.MaxScrollTime != 45*time.Second {
		t.Errorf("Expected scroll budget 45s, got %v", config.Scroll.MaxScrollTime)
	}

	if config.Scroll.Headless {
		t.Error("Expected headless to be false")
	}

	if config.Storage.DatabasePath != "/tmp/flags.db" {
		t.Errorf("Expected database path /tmp/flags.db, got %s", config.Storage.DatabasePath)
	}
}
