package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"forumscraper/internal/renderer"
	"forumscraper/internal/store"
	"forumscraper/pkg/classify"
	"forumscraper/pkg/config"
	"forumscraper/pkg/fetch"
	"forumscraper/pkg/forum"
	"forumscraper/pkg/logger"
	"forumscraper/pkg/pipeline"
	"forumscraper/pkg/scraper"
	"forumscraper/pkg/storage"
	"forumscraper/pkg/stream"
)

var (
	// Scrape command flags
	forumName        string
	maxScrollSeconds int
	headless         bool
	databasePath     string
	mediaDir         string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one discovery session against the configured forum",
	Long: `Run one discovery session: open the forum's landing page, scroll it
the way a visitor would, and capture every new media post.

A session ends when it reaches an item captured by a previous run, when
scrolling stops producing new content, or when the scroll time budget
expires. Each session is recorded in the run history so the next one
resumes where this one started.`,
	Example: `  # Run a session with default settings
  forumscraper scrape

  # Show the browser window while scrolling
  forumscraper scrape --headless=false

  # Give the session two minutes of scroll time
  forumscraper scrape --max-scroll-seconds 120`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&forumName, "forum", "f", "", "forum to scrape (default: 9gag)")
	scrapeCmd.Flags().IntVar(&maxScrollSeconds, "max-scroll-seconds", 0, "scroll time budget in seconds")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	scrapeCmd.Flags().StringVar(&databasePath, "database", "", "path to the database file")
	scrapeCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory for downloaded media")
}

func runScrape(cmd *cobra.Command) error {
	flags := make(map[string]interface{})
	if forumName != "" {
		flags["forum"] = forumName
	}
	if maxScrollSeconds > 0 {
		flags["max-scroll-seconds"] = maxScrollSeconds
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if databasePath != "" {
		flags["database"] = databasePath
	}
	if mediaDir != "" {
		flags["media-dir"] = mediaDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.InfoWithFields("forum scraper starting", map[string]interface{}{
		"version": version,
		"forum":   cfg.Forum.Name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Collaborators come up before the run record exists; a failure here
	// leaves no trace in the run history.
	db, err := store.NewConnection(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	schemaVersion, err := store.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.DebugWithFields("database ready", map[string]interface{}{
		"schema_version": int(schemaVersion),
	})

	blobs, err := storage.NewBlobStore(cfg.Storage.MediaDirectory)
	if err != nil {
		return fmt.Errorf("failed to open media store: %w", err)
	}

	page, err := renderer.New(ctx, cfg.HomePageURL(), cfg.Scroll.Headless, log)
	if err != nil {
		return fmt.Errorf("failed to open forum page: %w", err)
	}
	defer page.Close()

	runRepo := store.NewRunRepository(db)
	docRepo := store.NewDocumentRepository(db)

	tracker := stream.NewTracker(page, forum.NewParser(), cfg.Scroll.SettleDelay, log)
	fetcher := fetch.NewClient(cfg.Fetch, log)
	ingest := pipeline.New(fetcher, docRepo, blobs, log)

	// Validated above, so the forum is always in the registry.
	target, _ := config.FindForum(cfg.Forum.Name)
	classifier := classify.NewClassifier(target.Processors)

	s := scraper.New(tracker, ingest, runRepo, classifier, cfg.Scroll.MaxScrollTime, log)
	summary, err := s.Run(ctx)
	if err != nil {
		log.WithError(err).Error("session failed")
		return err
	}

	log.InfoWithFields("session completed", map[string]interface{}{
		"run_id":          summary.RunID,
		"items_processed": summary.ItemsProcessed,
		"stop_reason":     summary.StopReason,
	})
	fmt.Printf("Processed %d items (%s)\n", summary.ItemsProcessed, summary.StopReason)
	return nil
}
