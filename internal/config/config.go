package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the leadharvest pipeline. It is built
// once at process start and passed into each component constructor; business
// logic never reads the environment directly.
type Config struct {
	Source   SourceConfig
	Search   SearchConfig
	Judge    JudgeConfig
	Qualify  QualifyConfig
	Contacts ContactsConfig
	Database DatabaseConfig
	Server   ServerConfig
	Sync     SyncConfig
	Schedule ScheduleConfig
}

// SourceConfig controls the listings provider client.
type SourceConfig struct {
	APIKey    string
	APIHost   string
	BaseURL   string
	JobPath   string
	PollPath  string        // poll endpoint template, {jobId} is substituted
	PageStart int           // first page number sent to the provider
	PageSize  int           // records requested per page
	MaxPages  int           // default page budget per fetch
	Timeout   time.Duration // per-request timeout
}

// SearchConfig is the default search window sent with every fetch.
type SearchConfig struct {
	Query    string
	Location string
	JobType  string
	Radius   string
	Sort     string
	Country  string
}

// JudgeConfig controls the external judgment service used for scoring and
// contact tie-breaking.
type JudgeConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// QualifyConfig controls the qualification pass.
type QualifyConfig struct {
	ScoreThreshold int // recommended requires score >= threshold (inclusive)
	MaxRetries     int // extra judge attempts after a malformed verdict
}

// ContactsConfig controls the HR contact-search provider.
type ContactsConfig struct {
	Enabled         bool
	APIKey          string
	OrgSearchURL    string
	PeopleSearchURL string
	PerPage         int
	RateLimitSleep  time.Duration // fixed gap between successive search calls
	Timeout         time.Duration
}

// DatabaseConfig selects the storage engine and its DSN.
type DatabaseConfig struct {
	Engine string // "sqlite" or "postgres"
	DSN    string
}

// ServerConfig controls the read-only results API.
type ServerConfig struct {
	Addr string
}

// SyncConfig controls the downstream REST sync of qualified postings.
type SyncConfig struct {
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// ScheduleConfig holds cron specs for the schedule command.
type ScheduleConfig struct {
	Spec string // e.g. "0 2 * * *" or "@every 24h"
}

const (
	defaultAPIHost      = "indeed-scraper-api.p.rapidapi.com"
	defaultJobPath      = "/api/job"
	defaultPollPath     = "/api/job/{jobId}"
	defaultJudgeBaseURL = "https://api.openai.com/v1"
	defaultOrgSearchURL = "https://api.apollo.io/api/v1/mixed_companies/search"
	defaultPeopleURL    = "https://api.apollo.io/api/v1/mixed_people/search"
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Source struct {
		APIKey    string `yaml:"api_key"`
		APIHost   string `yaml:"api_host"`
		BaseURL   string `yaml:"base_url"`
		JobPath   string `yaml:"job_path"`
		PollPath  string `yaml:"poll_path"`
		PageStart int    `yaml:"page_start"`
		PageSize  int    `yaml:"page_size"`
		MaxPages  int    `yaml:"max_pages"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"source"`
	Search struct {
		Query    string `yaml:"query"`
		Location string `yaml:"location"`
		JobType  string `yaml:"job_type"`
		Radius   string `yaml:"radius"`
		Sort     string `yaml:"sort"`
		Country  string `yaml:"country"`
	} `yaml:"search"`
	Judge struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"judge"`
	Qualify struct {
		ScoreThreshold int `yaml:"score_threshold"`
		MaxRetries     int `yaml:"max_retries"`
	} `yaml:"qualify"`
	Contacts struct {
		Enabled         bool   `yaml:"enabled"`
		APIKey          string `yaml:"api_key"`
		OrgSearchURL    string `yaml:"org_search_url"`
		PeopleSearchURL string `yaml:"people_search_url"`
		PerPage         int    `yaml:"per_page"`
		RateLimitSleep  string `yaml:"rate_limit_sleep"`
		Timeout         string `yaml:"timeout"`
	} `yaml:"contacts"`
	Database struct {
		Engine string `yaml:"engine"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Sync struct {
		URL     string `yaml:"url"`
		APIKey  string `yaml:"api_key"`
		Table   string `yaml:"table"`
		Timeout string `yaml:"timeout"`
	} `yaml:"sync"`
	Schedule struct {
		Spec string `yaml:"spec"`
	} `yaml:"schedule"`
}

// Load reads an optional .env file, then parses the YAML config at path with
// environment variables expanded, validates it, and returns Config.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env is fine, env vars may come from the shell.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Source: SourceConfig{
			APIKey:    raw.Source.APIKey,
			APIHost:   stringOr(raw.Source.APIHost, defaultAPIHost),
			BaseURL:   stringOr(raw.Source.BaseURL, "https://"+defaultAPIHost),
			JobPath:   stringOr(raw.Source.JobPath, defaultJobPath),
			PollPath:  stringOr(raw.Source.PollPath, defaultPollPath),
			PageStart: intOr(raw.Source.PageStart, 1),
			PageSize:  intOr(raw.Source.PageSize, 15),
			MaxPages:  intOr(raw.Source.MaxPages, 10),
		},
		Search: SearchConfig{
			Query:    raw.Search.Query,
			Location: raw.Search.Location,
			JobType:  stringOr(raw.Search.JobType, "fulltime"),
			Radius:   stringOr(raw.Search.Radius, "50"),
			Sort:     stringOr(raw.Search.Sort, "relevance"),
			Country:  stringOr(raw.Search.Country, "us"),
		},
		Judge: JudgeConfig{
			BaseURL: stringOr(raw.Judge.BaseURL, defaultJudgeBaseURL),
			APIKey:  raw.Judge.APIKey,
			Model:   stringOr(raw.Judge.Model, "gpt-4o-mini"),
		},
		Qualify: QualifyConfig{
			ScoreThreshold: intOr(raw.Qualify.ScoreThreshold, 80),
			MaxRetries:     intOr(raw.Qualify.MaxRetries, 1),
		},
		Contacts: ContactsConfig{
			Enabled:         raw.Contacts.Enabled,
			APIKey:          raw.Contacts.APIKey,
			OrgSearchURL:    stringOr(raw.Contacts.OrgSearchURL, defaultOrgSearchURL),
			PeopleSearchURL: stringOr(raw.Contacts.PeopleSearchURL, defaultPeopleURL),
			PerPage:         intOr(raw.Contacts.PerPage, 10),
		},
		Database: DatabaseConfig{
			Engine: stringOr(raw.Database.Engine, "sqlite"),
			DSN:    stringOr(raw.Database.DSN, "leadharvest.db"),
		},
		Server: ServerConfig{
			Addr: stringOr(raw.Server.Addr, ":8080"),
		},
		Sync: SyncConfig{
			URL:    raw.Sync.URL,
			APIKey: raw.Sync.APIKey,
			Table:  stringOr(raw.Sync.Table, "job_posting_summary"),
		},
		Schedule: ScheduleConfig{
			Spec: stringOr(raw.Schedule.Spec, "0 2 * * *"),
		},
	}

	if cfg.Source.Timeout, err = durationOr(raw.Source.Timeout, 30*time.Second); err != nil {
		return nil, fmt.Errorf("parse source.timeout %q: %w", raw.Source.Timeout, err)
	}
	if cfg.Judge.Timeout, err = durationOr(raw.Judge.Timeout, 30*time.Second); err != nil {
		return nil, fmt.Errorf("parse judge.timeout %q: %w", raw.Judge.Timeout, err)
	}
	if cfg.Contacts.Timeout, err = durationOr(raw.Contacts.Timeout, 30*time.Second); err != nil {
		return nil, fmt.Errorf("parse contacts.timeout %q: %w", raw.Contacts.Timeout, err)
	}
	if cfg.Contacts.RateLimitSleep, err = durationOr(raw.Contacts.RateLimitSleep, 500*time.Millisecond); err != nil {
		return nil, fmt.Errorf("parse contacts.rate_limit_sleep %q: %w", raw.Contacts.RateLimitSleep, err)
	}
	if cfg.Sync.Timeout, err = durationOr(raw.Sync.Timeout, 30*time.Second); err != nil {
		return nil, fmt.Errorf("parse sync.timeout %q: %w", raw.Sync.Timeout, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Source.APIKey == "" {
		return fmt.Errorf("source.api_key is required")
	}
	if cfg.Judge.APIKey == "" {
		return fmt.Errorf("judge.api_key is required")
	}
	if cfg.Search.Query == "" {
		return fmt.Errorf("search.query is required")
	}
	if cfg.Search.Location == "" {
		return fmt.Errorf("search.location is required")
	}
	switch cfg.Database.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.engine must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Engine)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be positive, got %d", cfg.Source.PageSize)
	}
	if cfg.Source.MaxPages <= 0 {
		return fmt.Errorf("source.max_pages must be positive, got %d", cfg.Source.MaxPages)
	}
	if cfg.Qualify.ScoreThreshold < 0 || cfg.Qualify.ScoreThreshold > 100 {
		return fmt.Errorf("qualify.score_threshold must be in [0,100], got %d", cfg.Qualify.ScoreThreshold)
	}
	if cfg.Contacts.Enabled && cfg.Contacts.APIKey == "" {
		return fmt.Errorf("contacts.api_key is required when contacts.enabled is true")
	}
	return nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}
