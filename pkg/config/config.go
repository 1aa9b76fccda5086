package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the forum media scraper
type Config struct {
	// Forum target selection
	Forum ForumConfig `yaml:"forum" json:"forum"`

	// Scroll/session settings
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// Persistence settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Media fetch settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ForumConfig selects the forum to harvest
type ForumConfig struct {
	Name string `yaml:"name" json:"name"`
	// HomePageURL overrides the registry URL for the named forum; mainly
	// useful for pointing a session at a local fixture server.
	HomePageURL string `yaml:"home_page_url" json:"home_page_url"`
}

// ScrollConfig holds the session time budget and render settings
type ScrollConfig struct {
	MaxScrollTime time.Duration `yaml:"max_scroll_time" json:"max_scroll_time"`
	SettleDelay   time.Duration `yaml:"settle_delay" json:"settle_delay"`
	Headless      bool          `yaml:"headless" json:"headless"`
}

// StorageConfig holds database and blob store locations
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path" json:"database_path"`
	MediaDirectory string `yaml:"media_directory" json:"media_directory"`
}

// FetchConfig holds media download settings
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Forum is one supported forum target: its landing page and the article
// container types its processors understand.
type Forum struct {
	Name        string
	HomePageURL string
	Processors  []string
}

// SupportedForums is the registry of forums this scraper knows how to walk.
var SupportedForums = []Forum{
	{
		Name:        "9gag",
		HomePageURL: "https://9gag.com",
		Processors: []string{
			"post-container-with-button",
			"post-container",
			"post-view-video-post",
			"post-view-gif-post",
		},
	},
}

// FindForum looks up a forum in the registry by name
func FindForum(name string) (Forum, bool) {
	for _, f := range SupportedForums {
		if f.Name == name {
			return f, true
		}
	}
	return Forum{}, false
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Forum: ForumConfig{
			Name: "9gag",
		},
		Scroll: ScrollConfig{
			MaxScrollTime: 60 * time.Second,
			SettleDelay:   1500 * time.Millisecond,
			Headless:      true,
		},
		Storage: StorageConfig{
			DatabasePath:   "./data/forumscraper.db",
			MediaDirectory: "./data/media",
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
			MaxRetries:        3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if name := os.Getenv("FORUMSCRAPER_FORUM"); name != "" {
		c.Forum.Name = name
	}
	if url := os.Getenv("FORUMSCRAPER_HOME_PAGE_URL"); url != "" {
		c.Forum.HomePageURL = url
	}
	if budget := os.Getenv("FORUMSCRAPER_MAX_SCROLL_SECONDS"); budget != "" {
		val, err := strconv.Atoi(budget)
		if err != nil || val <= 0 {
			return fmt.Errorf("invalid FORUMSCRAPER_MAX_SCROLL_SECONDS: %q", budget)
		}
		c.Scroll.MaxScrollTime = time.Duration(val) * time.Second
	}
	if headless := os.Getenv("FORUMSCRAPER_HEADLESS"); headless != "" {
		c.Scroll.Headless = strings.ToLower(headless) == "true"
	}
	if dbPath := os.Getenv("FORUMSCRAPER_DATABASE_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if mediaDir := os.Getenv("FORUMSCRAPER_MEDIA_DIR"); mediaDir != "" {
		c.Storage.MediaDirectory = mediaDir
	}
	if rpm := os.Getenv("FORUMSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Fetch.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("FORUMSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("FORUMSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".forumscraper.yaml",
		".forumscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "forumscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "forumscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".forumscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Forum.Name == "" {
		errs = append(errs, errors.New("forum name is required"))
	} else if _, ok := FindForum(c.Forum.Name); !ok {
		errs = append(errs, fmt.Errorf("unsupported forum: %s", c.Forum.Name))
	}

	if c.Scroll.MaxScrollTime <= 0 {
		errs = append(errs, errors.New("max scroll time must be positive"))
	}
	if c.Scroll.SettleDelay <= 0 {
		errs = append(errs, errors.New("settle delay must be positive"))
	}

	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Storage.MediaDirectory == "" {
		errs = append(errs, errors.New("media directory is required"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HomePageURL resolves the effective landing page for the configured forum
func (c *Config) HomePageURL() string {
	if c.Forum.HomePageURL != "" {
		return c.Forum.HomePageURL
	}
	if f, ok := FindForum(c.Forum.Name); ok {
		return f.HomePageURL
	}
	return ""
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if name, ok := flags["forum"].(string); ok && name != "" {
		c.Forum.Name = name
	}
	if budget, ok := flags["max-scroll-seconds"].(int); ok && budget > 0 {
		c.Scroll.MaxScrollTime = time.Duration(budget) * time.Second
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Scroll.Headless = headless
	}
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if mediaDir, ok := flags["media-dir"].(string); ok && mediaDir != "" {
		c.Storage.MediaDirectory = mediaDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".forumscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
