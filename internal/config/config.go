package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"funding_digest/internal/textnorm"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Configuration validation errors.
var (
	ErrNoSources        = errors.New("at least one source is required")
	ErrSourceNoTarget   = errors.New("source needs exactly one of url or query")
	ErrInvalidMaxAge    = errors.New("max_age_days must be ≥ 1")
	ErrInvalidMaxResult = errors.New("max_results must be ≥ 1")
	ErrInvalidTimeout   = errors.New("fetch_timeout must be ≥ 1 second")
)

const (
	DefaultMaxAgeDays   = 7
	DefaultMaxResults   = 25
	DefaultFetchTimeout = 10
	DefaultSourceLimit  = 20
	DefaultSummaryRunes = 400
	DefaultListenAddr   = ":8080"
)

// Source is one feed: either a direct RSS URL or a Google News search query.
type Source struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SMTPConfig holds mail delivery settings. Credentials normally come from the environment.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Enabled reports whether enough settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != "" && s.To != ""
}

// Config is the run configuration of the digest.
type Config struct {
	Sources        []Source   `json:"sources"`
	MaxAgeDays     int        `json:"max_age_days"`
	MaxResults     int        `json:"max_results"`
	RequireDomain  bool       `json:"require_domain"`
	MatchMode      string     `json:"match_mode"`
	VocabularyFile string     `json:"vocabulary_file"`
	Schedule       string     `json:"schedule"`
	FetchTimeout   int        `json:"fetch_timeout"`
	SummaryRunes   int        `json:"summary_runes"`
	DatabaseURL    string     `json:"database_url"`
	ListenAddr     string     `json:"listen_addr"`
	SMTP           SMTPConfig `json:"smtp"`
}

// DefaultSources mirrors the feeds the digest has always read.
func DefaultSources() []Source {
	return []Source{
		{Name: "Google News", Query: "Sweden startup funding", Limit: 15},
		{Name: "Google News", Query: "Swedish startup raises million", Limit: 15},
		{Name: "Google News", Query: "Stockholm startup investment round", Limit: 15},
		{Name: "Google News", Query: "Sverige startup finansiering", Limit: 15},
		{Name: "Google News", Query: "Nordic startup funding", Limit: 15},
		{Name: "Breakit", URL: "https://www.breakit.se/feed/articles", Limit: 20},
		{Name: "Dagens industri Digital", URL: "https://digital.di.se/rss", Limit: 20},
	}
}

// Default returns a configuration that runs without a config file.
func Default() *Config {
	cfg := &Config{Sources: DefaultSources()}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (cfg *Config) ApplyDefaults() {
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.SummaryRunes == 0 {
		cfg.SummaryRunes = DefaultSummaryRunes
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 465
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Limit == 0 {
			cfg.Sources[i].Limit = DefaultSourceLimit
		}
	}
}

// Validate checks sources, limits, match mode and schedule.
func (cfg *Config) Validate() error {
	if len(cfg.Sources) == 0 {
		return ErrNoSources
	}
	for _, s := range cfg.Sources {
		if (s.URL == "") == (s.Query == "") {
			return fmt.Errorf("%w: %q", ErrSourceNoTarget, s.Name)
		}
		if s.URL != "" {
			if _, err := url.ParseRequestURI(s.URL); err != nil {
				return fmt.Errorf("invalid RSS URL: %s", s.URL)
			}
		}
	}
	if cfg.MaxAgeDays < 1 {
		return ErrInvalidMaxAge
	}
	if cfg.MaxResults < 1 {
		return ErrInvalidMaxResult
	}
	if cfg.FetchTimeout < 1 {
		return ErrInvalidTimeout
	}
	if _, err := textnorm.ParseMatchMode(cfg.MatchMode); err != nil {
		return err
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
	}
	return nil
}

// LoadConfig reads the JSON file at path and fills defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadEnv reads an optional .env file and applies environment overrides.
// Variables already set in the process environment win over the file.
func (cfg *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}

	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Schedule, "DIGEST_SCHEDULE")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.SMTP.To, "DIGEST_RECIPIENT")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTP.Port = port
	}
	if cfg.SMTP.To == "" {
		cfg.SMTP.To = cfg.SMTP.From
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
