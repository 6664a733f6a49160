package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"leadharvest/internal/config"
	"leadharvest/internal/contacts"
	"leadharvest/internal/ingest"
	"leadharvest/internal/judge"
	"leadharvest/internal/qualify"
	"leadharvest/internal/schema"
	"leadharvest/internal/scorer"
	"leadharvest/internal/source"
	"leadharvest/internal/store"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "leadharvest",
	Short:         "Ingest job postings and qualify them into sales leads",
	Long:          "leadharvest fetches job postings from a listings provider, deduplicates them into raw storage, scores them against a fit rubric, attaches HR contacts, and serves the qualified results.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default config.yaml, or $LEADHARVEST_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("LEADHARVEST_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}
	return config.Load(path)
}

// openStore connects to the configured engine and makes sure the fixed
// tables exist.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Engine, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureTables(); err != nil {
		st.Close()
		return nil, fmt.Errorf("ensuring tables: %w", err)
	}
	return st, nil
}

func buildSourceClient(cfg *config.Config, logger *slog.Logger) *source.Client {
	httpClient := &http.Client{Timeout: cfg.Source.Timeout}
	return source.NewClient(cfg.Source, cfg.Search, httpClient, logger)
}

func buildOrchestrator(cfg *config.Config, st *store.Store, logger *slog.Logger) *ingest.Orchestrator {
	fetcher := buildSourceClient(cfg, logger)
	discoverer := schema.NewDiscoverer(10, logger)
	return ingest.New(fetcher, discoverer, st, st, cfg.Search, logger)
}

func buildQualifier(cfg *config.Config, st *store.Store, logger *slog.Logger) *qualify.Qualifier {
	judgeHTTP := &http.Client{Timeout: cfg.Judge.Timeout}
	completer := judge.NewOpenAIClient(cfg.Judge, judgeHTTP)

	sc := scorer.New(completer, cfg.Qualify.ScoreThreshold, logger)

	var finder qualify.ContactFinder
	if cfg.Contacts.Enabled {
		contactsHTTP := &http.Client{Timeout: cfg.Contacts.Timeout}
		finder = contacts.NewSourcer(cfg.Contacts, contactsHTTP, completer, logger)
	}

	return qualify.New(sc, finder, st, st, cfg.Qualify.MaxRetries, logger)
}
