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

// Config holds the osinter API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Repository RepositoryConfig `yaml:"repository"`
	Search     SearchConfig     `yaml:"search"`
	Auth       AuthConfig       `yaml:"auth"`
	Features   FeaturesConfig   `yaml:"features"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional JSON log file, rotated
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds credential hashing and signup settings.
type AuthConfig struct {
	Argon2      Argon2Config `yaml:"argon2"`
	SignupCodes []string     `yaml:"signup_codes"`
}

// Argon2Config holds argon2id cost parameters.
type Argon2Config struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
	KeyLen    uint32 `yaml:"key_len"`
	SaltLen   uint32 `yaml:"salt_len"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, bolt (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // bolt only
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RepositoryConfig holds optimistic write settings.
type RepositoryConfig struct {
	MaxWriteRetries int `yaml:"max_write_retries"`
}

// SearchConfig holds article search engine settings.
type SearchConfig struct {
	Driver       string   `yaml:"driver"` // elastic, bleve (default: elastic)
	URLs         []string `yaml:"urls"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	Index        string   `yaml:"index"`
	Path         string   `yaml:"path"` // bleve only; empty means in-memory
	MaxResults   int      `yaml:"max_results"`
	FragmentSize int      `yaml:"fragment_size"`
	Fragments    int      `yaml:"fragments"`
}

// FeaturesConfig toggles optional capabilities.
type FeaturesConfig struct {
	MLClustering bool `yaml:"ml_clustering"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
)

// Search drivers.
const (
	SearchElastic = "elastic"
	SearchBleve   = "bleve"
)

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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "osinter:"
	}
	if c.Repository.MaxWriteRetries <= 0 {
		c.Repository.MaxWriteRetries = 5
	}
	if c.Search.Driver == "" {
		c.Search.Driver = SearchElastic
	}
	if c.Search.Index == "" {
		c.Search.Index = "osinter_articles"
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 10000
	}
	if c.Search.FragmentSize <= 0 {
		c.Search.FragmentSize = 150
	}
	if c.Search.Fragments <= 0 {
		c.Search.Fragments = 3
	}
	if c.Auth.Argon2.Time == 0 {
		c.Auth.Argon2.Time = 3
	}
	if c.Auth.Argon2.MemoryKiB == 0 {
		c.Auth.Argon2.MemoryKiB = 64 * 1024
	}
	if c.Auth.Argon2.Threads == 0 {
		c.Auth.Argon2.Threads = 4
	}
	if c.Auth.Argon2.KeyLen == 0 {
		c.Auth.Argon2.KeyLen = 32
	}
	if c.Auth.Argon2.SaltLen == 0 {
		c.Auth.Argon2.SaltLen = 16
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 28
	}
	c.Auth.SignupCodes = splitCodes(c.Auth.SignupCodes)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverBolt:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the bolt driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q, %q or %q, got %q",
			DriverValkey, DriverRedis, DriverBolt, c.Database.Driver)
	}
	switch c.Search.Driver {
	case SearchElastic:
		if len(c.Search.URLs) == 0 {
			return fmt.Errorf("search.urls is required")
		}
	case SearchBleve:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q", SearchElastic, SearchBleve, c.Search.Driver)
	}
	if c.Auth.Argon2.SaltLen < 8 {
		return fmt.Errorf("auth.argon2.salt_len must be at least 8, got %d", c.Auth.Argon2.SaltLen)
	}
	return nil
}

// splitCodes accepts both a YAML list and a single comma-separated entry,
// as produced by "${SIGNUP_CODES}".
func splitCodes(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, code := range strings.Split(entry, ",") {
			if code = strings.TrimSpace(code); code != "" {
				out = append(out, code)
			}
		}
	}
	return out
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
