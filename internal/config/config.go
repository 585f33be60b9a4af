package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend modes.
const (
	ModeRemote   = "remote"
	ModeFixtures = "fixtures"
)

// Config holds all localfund configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Paging   PagingConfig   `yaml:"paging"`
	Trending TrendingConfig `yaml:"trending"`
	Kakao    KakaoConfig    `yaml:"kakao"`
	Payment  PaymentConfig  `yaml:"payment"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`
	Fixtures FixturesConfig `yaml:"fixtures"`

	// Onboarded is set once the setup wizard completed.
	Onboarded bool `yaml:"onboarded"`
}

// BackendConfig configures the REST backend.
type BackendConfig struct {
	Mode          string  `yaml:"mode"` // remote, fixtures
	BaseURL       string  `yaml:"base_url"`
	Timeout       string  `yaml:"timeout"`
	MemberTimeout string  `yaml:"member_timeout"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// PagingConfig holds page sizes per listing.
type PagingConfig struct {
	RestaurantSize int `yaml:"restaurant_size"`
	SpecialtySize  int `yaml:"specialty_size"`
	CommunitySize  int `yaml:"community_size"`
	AdminSize      int `yaml:"admin_size"`
}

// TrendingConfig is the fixed point used by the trending listing.
type TrendingConfig struct {
	Lat    float64 `yaml:"lat"`
	Lng    float64 `yaml:"lng"`
	Radius int     `yaml:"radius"`
}

// KakaoConfig configures the Kakao Local API.
type KakaoConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// PaymentConfig configures the payment gateway relay.
type PaymentConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	Timeout    string `yaml:"timeout"`
}

// StorageConfig locates the local SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// UIConfig holds interface timings.
type UIConfig struct {
	KeywordInterval string   `yaml:"keyword_interval"`
	SearchDebounce  string   `yaml:"search_debounce"`
	Keywords        []string `yaml:"keywords"`
	ShareBaseURL    string   `yaml:"share_base_url"`
}

// FixturesConfig configures the in-process fixture backend.
type FixturesConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

// DefaultDir returns ~/.localfund.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".localfund"
	}
	return filepath.Join(home, ".localfund")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		Backend: BackendConfig{
			Mode:          ModeRemote,
			BaseURL:       "http://localhost:8080",
			Timeout:       "30s",
			MemberTimeout: "10s",
			RatePerSecond: 10,
			Burst:         20,
		},
		Paging: PagingConfig{
			RestaurantSize: 48,
			SpecialtySize:  24,
			CommunitySize:  10,
			AdminSize:      20,
		},
		Trending: TrendingConfig{
			Lat:    37.5027,
			Lng:    127.0352,
			Radius: 10000,
		},
		Kakao: KakaoConfig{
			BaseURL: "https://dapi.kakao.com",
		},
		Payment: PaymentConfig{
			Timeout: "2m",
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "localfund.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "localfund.log"),
		},
		UI: UIConfig{
			KeywordInterval: "3s",
			SearchDebounce:  "300ms",
			Keywords:        []string{"한우", "사과", "감귤", "전통주", "떡볶이", "국밥"},
			ShareBaseURL:    "http://localhost:3000",
		},
		Fixtures: FixturesConfig{
			Addr:      "127.0.0.1:8787",
			JWTSecret: "localfund-fixtures",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Owner read/write only, the file may hold the Kakao key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("LOCALFUND_API_URL"); url != "" {
		c.Backend.BaseURL = url
	}
	if mode := os.Getenv("LOCALFUND_MODE"); mode != "" {
		c.Backend.Mode = strings.ToLower(strings.TrimSpace(mode))
	}
	if key := os.Getenv("KAKAO_REST_API_KEY"); key != "" {
		c.Kakao.APIKey = key
	}
	if path := os.Getenv("LOCALFUND_DB"); path != "" {
		c.Storage.DBPath = path
	}
	if level := os.Getenv("LOCALFUND_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if url := os.Getenv("LOCALFUND_PAYMENT_URL"); url != "" {
		c.Payment.GatewayURL = url
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case ModeRemote:
		if strings.TrimSpace(c.Backend.BaseURL) == "" {
			return fmt.Errorf("backend.base_url is required in remote mode")
		}
	case ModeFixtures:
	default:
		return fmt.Errorf("unknown backend.mode %q (want %s or %s)", c.Backend.Mode, ModeRemote, ModeFixtures)
	}
	if c.Paging.RestaurantSize <= 0 || c.Paging.SpecialtySize <= 0 || c.Paging.CommunitySize <= 0 {
		return fmt.Errorf("paging sizes must be positive")
	}
	return nil
}

// IsFixtures reports whether the explicit fixture backend is selected.
func (c *Config) IsFixtures() bool {
	return c.Backend.Mode == ModeFixtures
}

// BackendTimeout returns the default request timeout.
func (c *Config) BackendTimeout() time.Duration {
	return parseDuration(c.Backend.Timeout, 30*time.Second)
}

// MemberTimeout returns the timeout of the member endpoint family.
func (c *Config) MemberTimeout() time.Duration {
	return parseDuration(c.Backend.MemberTimeout, 10*time.Second)
}

// PaymentTimeout returns how long a checkout may wait on the provider.
func (c *Config) PaymentTimeout() time.Duration {
	return parseDuration(c.Payment.Timeout, 2*time.Minute)
}

// KeywordInterval returns the rotation interval of the search keywords.
func (c *Config) KeywordInterval() time.Duration {
	return parseDuration(c.UI.KeywordInterval, 3*time.Second)
}

// SearchDebounce returns the search input debounce delay.
func (c *Config) SearchDebounce() time.Duration {
	return parseDuration(c.UI.SearchDebounce, 300*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
