package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL       string `mapstructure:"api_base_url"`
	APIKey           string `mapstructure:"api_key"`
	SectionsRaw      string `mapstructure:"sections"`
	DefaultSection   string `mapstructure:"default_section"`
	OrderBy          string `mapstructure:"order_by"`
	PageSize         int    `mapstructure:"page_size"`
	UserAgent        string `mapstructure:"user_agent"`
	ConnectTimeoutMs int64  `mapstructure:"connect_timeout_ms"`
	ReadTimeoutMs    int64  `mapstructure:"read_timeout_ms"`

	RefreshIntervalSeconds int64 `mapstructure:"refresh_interval"`

	StorageType           string `mapstructure:"storage_type"`
	BBoltPath             string `mapstructure:"bbolt_path"`
	StorageTTLSeconds     int64  `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds int64  `mapstructure:"storage_cleanup_interval_seconds"`

	PublishersFile string `mapstructure:"publishers_file"`
	EnrichArticles bool   `mapstructure:"enrich_articles"`
	EnrichDelayMs  int    `mapstructure:"enrich_delay_ms"`
	MetricsAddr    string `mapstructure:"metrics_addr"`

	Sections               []string         `mapstructure:"-"`
	SortOrder              domain.SortOrder `mapstructure:"-"`
	ConnectTimeout         time.Duration    `mapstructure:"-"`
	ReadTimeout            time.Duration    `mapstructure:"-"`
	RefreshInterval        time.Duration    `mapstructure:"-"`
	StorageTTL             time.Duration    `mapstructure:"-"`
	StorageCleanupInterval time.Duration    `mapstructure:"-"`
	EnrichDelay            time.Duration    `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "newsfeed")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "https://content.guardianapis.com/search")
	v.SetDefault("api_key", "test")
	v.SetDefault("sections", domain.DefaultSection)
	v.SetDefault("default_section", domain.DefaultSection)
	v.SetDefault("order_by", "newest")
	v.SetDefault("page_size", 10)
	v.SetDefault("user_agent", "newsfeed/1.0")
	v.SetDefault("connect_timeout_ms", 25000)
	v.SetDefault("read_timeout_ms", 20000)
	v.SetDefault("refresh_interval", 900) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("publishers_file", "")
	v.SetDefault("enrich_articles", false)
	v.SetDefault("enrich_delay_ms", 500)
	v.SetDefault("metrics_addr", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives typed fields.
func (c *Config) finalize() error {
	c.APIBaseURL = strings.TrimSpace(c.APIBaseURL)
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api_base_url %q: %w", c.APIBaseURL, err)
	}

	order, err := domain.ParseSortOrder(c.OrderBy)
	if err != nil {
		return fmt.Errorf("invalid order_by: %w", err)
	}
	c.SortOrder = order

	if c.PageSize < 1 || c.PageSize > 200 {
		return fmt.Errorf("invalid page_size %d (must be between 1 and 200)", c.PageSize)
	}

	c.Sections = splitSections(c.SectionsRaw)

	if c.ConnectTimeoutMs <= 0 || c.ReadTimeoutMs <= 0 {
		return fmt.Errorf("invalid connect_timeout_ms/read_timeout_ms (must be positive milliseconds)")
	}
	c.ConnectTimeout = time.Duration(c.ConnectTimeoutMs) * time.Millisecond
	c.ReadTimeout = time.Duration(c.ReadTimeoutMs) * time.Millisecond

	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("invalid refresh_interval (must be positive seconds)")
	}
	c.RefreshInterval = time.Duration(c.RefreshIntervalSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	if c.EnrichDelayMs < 0 {
		return fmt.Errorf("invalid enrich_delay_ms (must not be negative)")
	}
	c.EnrichDelay = time.Duration(c.EnrichDelayMs) * time.Millisecond

	return nil
}

// LoaderConfig returns the immutable per-load configuration.
func (c *Config) LoaderConfig() domain.LoaderConfig {
	sections := make([]string, len(c.Sections))
	copy(sections, c.Sections)
	return domain.LoaderConfig{
		Sections:       sections,
		SortOrder:      c.SortOrder,
		PageSize:       c.PageSize,
		APIKey:         c.APIKey,
		DefaultSection: c.DefaultSection,
	}
}

// RequestHeaders returns the headers sent with every search request.
func (c *Config) RequestHeaders() map[string]string {
	if strings.TrimSpace(c.UserAgent) == "" {
		return nil
	}
	return map[string]string{"User-Agent": c.UserAgent}
}

func splitSections(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
