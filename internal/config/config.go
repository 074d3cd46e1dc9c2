// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/easeaico/memsearch/internal/logging"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. MEMSEARCH_FILE.
	EnvPrefix = "MEMSEARCH"

	// DefaultFile is the knowledge base document, relative to WorkDir.
	DefaultFile = "dev-memory.json"

	// DefaultModel is the Gemini model used by the agent command.
	DefaultModel = "gemini-2.0-flash"
)

// Formats lists the accepted data output formats.
var Formats = []string{"json", "yaml"}

// Config holds the application configuration. Values come from, in order of
// precedence, command-line flags, MEMSEARCH_* environment variables, an
// optional memsearch.yaml and the defaults.
type Config struct {
	File     string `mapstructure:"file"`      // knowledge base document
	WorkDir  string `mapstructure:"work_dir"`  // base for a relative File (defaults to the current directory)
	LogLevel string `mapstructure:"log_level"` // debug, info, warn or error
	Format   string `mapstructure:"format"`    // json or yaml
	Model    string `mapstructure:"model"`     // agent model name
	APIKey   string `mapstructure:"api_key"`   // Google GenAI API key, only needed by the agent command
}

// New returns a viper instance with defaults, environment bindings and the
// memsearch.yaml search path set up. Extra search paths are tried before the
// current directory and $HOME/.config/memsearch.
func New(searchPaths ...string) *viper.Viper {
	v := viper.New()

	v.SetDefault("file", DefaultFile)
	v.SetDefault("work_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("format", "json")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("api_key", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GOOGLE_API_KEY")

	v.SetConfigName("memsearch")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "memsearch"))
	}
	return v
}

// Load reads the optional config file and resolves the configuration.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.WorkDir == "" {
		cfg.WorkDir, _ = os.Getwd()
	}
	if cfg.File == "" {
		cfg.File = DefaultFile
	}
	if !filepath.IsAbs(cfg.File) {
		cfg.File = filepath.Join(cfg.WorkDir, cfg.File)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Format = strings.ToLower(cfg.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(logging.Levels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %s, got: %s", strings.Join(logging.Levels, ", "), c.LogLevel)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("format must be one of %s, got: %s", strings.Join(Formats, ", "), c.Format)
	}
	return nil
}

// RequireAPIKey reports a missing API key with a hint on how to set it.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errors.New("GOOGLE_API_KEY environment variable is required")
	}
	return nil
}
