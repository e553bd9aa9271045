package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the facedex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Encoder     EncoderConfig     `yaml:"encoder"`
	Cache       CacheConfig       `yaml:"cache"`
	Score       ScoreConfig       `yaml:"score"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig holds the embedding dataset settings.
type CorpusConfig struct {
	Path string `yaml:"path"`
	// Dimensions pins the expected embedding size. 0 derives it from
	// the first record.
	Dimensions int `yaml:"dimensions"`
}

// EncoderConfig holds query encoder provider settings.
type EncoderConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSec     int `yaml:"ttl_sec"`
}

// ScoreConfig holds the display-score calibration. The raw bands are
// empirically tuned against the encoder/corpus pairing; revisit them
// whenever either side changes.
type ScoreConfig struct {
	TextLo   float64 `yaml:"text_lo"`
	TextHi   float64 `yaml:"text_hi"`
	EntityLo float64 `yaml:"entity_lo"`
	EntityHi float64 `yaml:"entity_hi"`
	MinPct   float64 `yaml:"min_pct"`
	MaxPct   float64 `yaml:"max_pct"`
}

// LeaderboardConfig holds leaderboard persistence settings.
type LeaderboardConfig struct {
	DBPath string `yaml:"db_path"`
}

// AnalyticsConfig holds search analytics settings.
type AnalyticsConfig struct {
	LogPath string `yaml:"log_path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 100
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Score.TextHi == 0 {
		c.Score.TextLo = 0.10
		c.Score.TextHi = 0.28
	}
	if c.Score.EntityHi == 0 {
		c.Score.EntityLo = 0.70
		c.Score.EntityHi = 0.95
	}
	if c.Score.MaxPct == 0 {
		c.Score.MinPct = 60
		c.Score.MaxPct = 100
	}
	if c.Leaderboard.DBPath == "" {
		c.Leaderboard.DBPath = "persistent/leaderboard.db"
	}
	if c.Analytics.LogPath == "" {
		c.Analytics.LogPath = "persistent/search_analytics.json"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required")
	}
	if c.Corpus.Dimensions < 0 {
		return fmt.Errorf("corpus.dimensions must not be negative, got %d", c.Corpus.Dimensions)
	}
	if c.Score.TextHi <= c.Score.TextLo {
		return fmt.Errorf("score.text_hi (%v) must exceed score.text_lo (%v)", c.Score.TextHi, c.Score.TextLo)
	}
	if c.Score.EntityHi <= c.Score.EntityLo {
		return fmt.Errorf("score.entity_hi (%v) must exceed score.entity_lo (%v)", c.Score.EntityHi, c.Score.EntityLo)
	}
	if c.Score.MaxPct <= c.Score.MinPct {
		return fmt.Errorf("score.max_pct (%v) must exceed score.min_pct (%v)", c.Score.MaxPct, c.Score.MinPct)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
