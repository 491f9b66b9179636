package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverSQLite = "sqlite"
)

// Config holds the promptdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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
	Port              int `yaml:"port"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int `yaml:"write_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds the query embedding provider settings.
// An empty Model disables semantic retrieval.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	// DocumentInstruction prefixes template text embedded by promptdexctl load.
	DocumentInstruction string `yaml:"document_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// Enabled reports whether an embedding model is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Model != "" }

// SearchConfig tunes ranking.
type SearchConfig struct {
	RRFK int `yaml:"rrf_k"`
	// MinSimilarity is nil when the key is absent; an explicit 0 is kept.
	MinSimilarity *float64 `yaml:"min_similarity"`
	HybridWindow  int      `yaml:"hybrid_window"`
	SnippetWords  int      `yaml:"snippet_words"`
	DefaultLimit  int      `yaml:"default_limit"`
	MaxLimit      int      `yaml:"max_limit"`
}

// Search bounds.
const (
	MinSnippetWords = 15
	MaxSnippetWords = 35
	// HardMaxLimit is the largest page the search core accepts.
	HardMaxLimit = 100
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands env references, applies defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 15
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 20
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.Driver == DriverSQLite && c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "promptdex.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.MinSimilarity == nil {
		v := 0.5
		c.Search.MinSimilarity = &v
	}
	if c.Search.HybridWindow <= 0 {
		c.Search.HybridWindow = 100
	}
	if c.Search.SnippetWords <= 0 {
		c.Search.SnippetWords = 25
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be redis, valkey or sqlite, got %q", c.Database.Driver)
	}
	if ms := c.Search.MinSimilarity; ms != nil && (*ms < -1 || *ms > 1) {
		return fmt.Errorf("search.min_similarity must be within [-1, 1], got %v", *ms)
	}
	if c.Search.SnippetWords < MinSnippetWords || c.Search.SnippetWords > MaxSnippetWords {
		return fmt.Errorf("search.snippet_words must be between %d and %d, got %d",
			MinSnippetWords, MaxSnippetWords, c.Search.SnippetWords)
	}
	if c.Search.MaxLimit > HardMaxLimit {
		return fmt.Errorf("search.max_limit must not exceed %d, got %d", HardMaxLimit, c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Embedding.Enabled() && c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be non-negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests and go run
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
