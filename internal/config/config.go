// Package config loads hivectl settings from a YAML file, HIVETRACE_*
// environment variables and defaults, in increasing order of precedence
// below command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/joshuapare/hivetrace/internal/logger"
	"github.com/joshuapare/hivetrace/pkg/types"
)

const (
	// FileName is the config file base name searched for in SearchPaths.
	FileName  = "hivetrace-config"
	EnvPrefix = "HIVETRACE"
)

// SearchPaths are tried in order when no explicit file is given.
var SearchPaths = []string{".", "$HOME/.hivetrace", "/etc/hivetrace"}

// Keys shared with the CLI flag bindings.
const (
	KeyMaxDepth           = "walk.max_depth"
	KeyIncludeDescendants = "walk.include_descendants"
	KeyLogEnabled         = "log.enabled"
	KeyLogLevel           = "log.level"
	KeyLogDir             = "log.dir"
	KeyLogJSON            = "log.json"
	KeyOutputFormat       = "output.format"
	KeyMaxValueBytes      = "output.max_value_bytes"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds hivectl settings.
type Config struct {
	Walk   WalkConfig   `mapstructure:"walk"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

// WalkConfig controls traversal.
type WalkConfig struct {
	MaxDepth           int  `mapstructure:"max_depth"`
	IncludeDescendants bool `mapstructure:"include_descendants"`
}

// LogConfig controls internal/logger.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	JSON    bool   `mapstructure:"json"`
}

// OutputConfig controls hive/printer.
type OutputConfig struct {
	Format        string `mapstructure:"format"`
	MaxValueBytes int    `mapstructure:"max_value_bytes"`
}

// New returns a viper instance with defaults, search paths and environment
// binding set up, reading files from fs.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	if fs != nil {
		v.SetFs(fs)
	}
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	for _, p := range SearchPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault(KeyMaxDepth, types.WindowsMaxTreeDepthPractical)
	v.SetDefault(KeyIncludeDescendants, false)
	v.SetDefault(KeyLogEnabled, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDir, "")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyOutputFormat, "text")
	v.SetDefault(KeyMaxValueBytes, 32)

	// HIVETRACE_WALK_MAX_DEPTH overrides walk.max_depth
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the OS filesystem. See LoadFs.
func Load(path string) (Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads the file at path, or the first hivetrace-config.yaml found
// in SearchPaths when path is empty, and decodes the result.
func LoadFs(fs afero.Fs, path string) (Config, error) {
	v := New(fs)
	if err := Read(v, path); err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// Read loads the config file into v. A missing file is only an error when
// path names it explicitly.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Decode unmarshals v and validates the result.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if c.Walk.MaxDepth < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyMaxDepth)
	}
	if c.Output.MaxValueBytes < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyMaxValueBytes)
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "reg":
	default:
		return fmt.Errorf("%w: %s %q is not text, json or reg", ErrInvalid, KeyOutputFormat, c.Output.Format)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, KeyLogLevel, err)
	}
	return nil
}

// LoggerOptions converts the log section for logger.Init.
func (c Config) LoggerOptions() logger.Options {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  c.Log.Dir,
		Level:   level,
		JSON:    c.Log.JSON,
	}
}
