package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Server      ServerConfig      `toml:"server"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Session     SessionConfig     `toml:"session"`
	Store       StoreConfig       `toml:"store"`
	Feedback    FeedbackConfig    `toml:"feedback"`
	ObjectStore ObjectStoreConfig `toml:"objectstore"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// MetricsConfig holds speech metrics configuration
type MetricsConfig struct {
	// Mode selects the rate unit: "words" (WPM) or "syllables" (SPM).
	// The two modes are mutually exclusive for a running process.
	Mode           string  `toml:"mode"`
	SlowThreshold  float64 `toml:"slow_threshold"`
	IdealRate      float64 `toml:"ideal_rate"`
	FastThreshold  float64 `toml:"fast_threshold"`
	VocabularyFile string  `toml:"vocabulary_file"`
}

// SessionConfig holds in-memory session store configuration
type SessionConfig struct {
	// TTL evicts sessions idle longer than this. 0 disables eviction and
	// keeps sessions for the process lifetime.
	TTL Duration `toml:"ttl"`
}

// StoreConfig holds snapshot archive configuration
type StoreConfig struct {
	Path string `toml:"path"`
}

// FeedbackConfig holds the generative feedback provider configuration
type FeedbackConfig struct {
	APIKey  string   `toml:"api_key"`
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	Timeout Duration `toml:"timeout"`
}

// ObjectStoreConfig holds the optional S3-compatible archive configuration.
// The capability is disabled unless endpoint, access key and bucket are set.
type ObjectStoreConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Enabled reports whether the object store capability is configured.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.Bucket != ""
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file, applies defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the SPEAKWISE_CONFIG environment
// variable or the default locations. When no file exists, the built-in
// defaults plus environment overrides are used.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("SPEAKWISE_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/speakwise/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "speakwise"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}

	// Metrics: thresholds for conversational Korean speech
	if c.Metrics.Mode == "" {
		c.Metrics.Mode = "words"
	}
	if c.Metrics.SlowThreshold == 0 {
		c.Metrics.SlowThreshold = 150
	}
	if c.Metrics.IdealRate == 0 {
		c.Metrics.IdealRate = 190
	}
	if c.Metrics.FastThreshold == 0 {
		c.Metrics.FastThreshold = 250
	}

	// Session
	if c.Session.TTL.Duration == 0 {
		c.Session.TTL.Duration = time.Hour
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "snapshots.db")
	}

	// Feedback
	if c.Feedback.BaseURL == "" {
		c.Feedback.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Feedback.Model == "" {
		c.Feedback.Model = "gemini-2.0-flash"
	}
	if c.Feedback.Timeout.Duration == 0 {
		c.Feedback.Timeout.Duration = 30 * time.Second
	}

	// Object store
	if c.ObjectStore.Region == "" {
		c.ObjectStore.Region = "ap-northeast-2"
	}
}

// applyEnv applies environment variable overrides. Environment wins over
// the file so that credentials never have to live in the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("SPEAKWISE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SPEAKWISE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SPEAKWISE_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := os.Getenv("SPEAKWISE_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Feedback.APIKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		c.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		c.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.ObjectStore.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.ObjectStore.Region = v
	}
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
