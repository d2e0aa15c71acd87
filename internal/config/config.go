package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopsight/prodsim/internal/domain/search"
)

// Config holds the prodsim API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SnapshotConfig controls how long a loaded catalog/embeddings snapshot is
// reused before reloading from the store.
type SnapshotConfig struct {
	TTLSec int `yaml:"ttl_sec"`
}

// SearchConfig holds similar-search defaults.
type SearchConfig struct {
	DefaultCount    int      `yaml:"default_count"`     // per-source result cap
	MaxCount        int      `yaml:"max_count"`         // upper bound for default_count and request counts
	DefaultMinScore *float64 `yaml:"default_min_score"` // nil -> 0.5
	BestPriceOnly   bool     `yaml:"best_price_only"`
	SortKeys        []string `yaml:"sort_keys"`
	SortDirections  []string `yaml:"sort_directions"`
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "prodsim:"
	}
	if c.Snapshot.TTLSec <= 0 {
		c.Snapshot.TTLSec = 3600
	}
	if c.Search.MaxCount <= 0 {
		c.Search.MaxCount = search.MaxCount
	}
	if c.Search.DefaultCount <= 0 {
		c.Search.DefaultCount = search.DefaultCount
	}
	if c.Search.DefaultMinScore == nil {
		v := search.DefaultMinScore
		c.Search.DefaultMinScore = &v
	}
	if len(c.Search.SortKeys) == 0 && len(c.Search.SortDirections) == 0 {
		keys, dirs := search.DefaultSort()
		for _, k := range keys {
			c.Search.SortKeys = append(c.Search.SortKeys, string(k))
		}
		for _, d := range dirs {
			c.Search.SortDirections = append(c.Search.SortDirections, string(d))
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultCount > c.Search.MaxCount {
		return fmt.Errorf("search.default_count %d exceeds search.max_count %d",
			c.Search.DefaultCount, c.Search.MaxCount)
	}
	if s := *c.Search.DefaultMinScore; s < 0 || s > 1 {
		return fmt.Errorf("search.default_min_score must be between 0 and 1, got %g", s)
	}
	if len(c.Search.SortKeys) != len(c.Search.SortDirections) {
		return fmt.Errorf("search.sort_keys and search.sort_directions must have the same length (%d vs %d)",
			len(c.Search.SortKeys), len(c.Search.SortDirections))
	}
	// Reject unknown keys/directions up front; requests built from config
	// must never fail request validation at search time.
	if _, _, err := c.SortSpec(); err != nil {
		return err
	}
	return nil
}

// SortSpec converts the configured sort lists into domain types.
func (c *Config) SortSpec() ([]search.SortKey, []search.Direction, error) {
	keys := make([]search.SortKey, len(c.Search.SortKeys))
	for i, k := range c.Search.SortKeys {
		switch search.SortKey(k) {
		case search.SortByScore, search.SortByPrice:
			keys[i] = search.SortKey(k)
		default:
			return nil, nil, fmt.Errorf("search.sort_keys[%d]: unknown key %q", i, k)
		}
	}
	dirs := make([]search.Direction, len(c.Search.SortDirections))
	for i, d := range c.Search.SortDirections {
		switch search.Direction(d) {
		case search.Asc, search.Desc:
			dirs[i] = search.Direction(d)
		default:
			return nil, nil, fmt.Errorf("search.sort_directions[%d]: unknown direction %q", i, d)
		}
	}
	return keys, dirs, nil
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
