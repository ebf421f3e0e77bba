package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	domainconfig "thoughtgraph/domain/config"
	pkgerrors "thoughtgraph/pkg/errors"
)

const (
	// DefaultDir holds the default store and config file, under $HOME
	DefaultDir = ".thoughts"
	// DefaultStoreFile is the store file name inside DefaultDir
	DefaultStoreFile = "thoughts.bin"
	// DefaultConfigFile is the config file name inside DefaultDir
	DefaultConfigFile = "config.yaml"

	envPrefix = "THOUGHTS_"
)

// Config holds all application configuration
type Config struct {
	// Storage
	StoreFile string `yaml:"store_file"`

	Environment string `yaml:"environment"`

	// Logging
	LogLevel string `yaml:"log_level"`
	Verbose  bool   `yaml:"-"`

	// Domain policy
	ImplicitTagCreation bool `yaml:"implicit_tags"`

	// Query cache TTL in seconds; 0 disables the cache
	QueryCacheTTL int `yaml:"query_cache_ttl"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`

	// ConfigFile is the file the configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	return &Config{
		StoreFile:           filepath.Join("~", DefaultDir, DefaultStoreFile),
		Environment:         "development",
		LogLevel:            "warn",
		ImplicitTagCreation: true,
		QueryCacheTTL:       60,
		EnableMetrics:       true,
		EnableTracing:       false,
	}
}

// LoadConfig layers defaults, the YAML config file and THOUGHTS_*
// environment variables, in that order. path names the config file; when
// empty, THOUGHTS_CONFIG or ~/.thoughts/config.yaml is used and a missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = getEnv("CONFIG", "")
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join("~", DefaultDir, DefaultConfigFile)
	}

	resolved, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.loadFile(resolved, explicit); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return pkgerrors.NewIOError("open config file", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid config file %s", path)).WithCause(err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.StoreFile = getEnv("FILE", c.StoreFile)
	c.Environment = getEnv("ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ImplicitTagCreation = getEnvBool("IMPLICIT_TAGS", c.ImplicitTagCreation)
	c.QueryCacheTTL = getEnvInt("QUERY_CACHE_TTL", c.QueryCacheTTL)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	if c.QueryCacheTTL < 0 {
		return pkgerrors.NewValidationError("query cache TTL cannot be negative")
	}
	return nil
}

// ResolveStorePath picks the store file: the -f flag wins, then
// THOUGHTS_FILE, then the config file, then ~/.thoughts/thoughts.bin
func (c *Config) ResolveStorePath(flag string) (string, error) {
	path := c.StoreFile
	if flag != "" {
		path = flag
	}
	if path == "" {
		path = filepath.Join("~", DefaultDir, DefaultStoreFile)
	}
	return ExpandHome(path)
}

// DomainConfig returns the business rules for the configured environment
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	dc.ImplicitTagCreation = c.ImplicitTagCreation
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pkgerrors.NewIOError("resolve home directory", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// getEnv gets a THOUGHTS_ environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
