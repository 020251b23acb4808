package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/childcheck/internal/assets"
	"github.com/fulmenhq/childcheck/pkg/checker"
	"github.com/fulmenhq/childcheck/pkg/ignore"
	"github.com/fulmenhq/childcheck/pkg/report"
	"github.com/fulmenhq/childcheck/pkg/safeio"
	"github.com/fulmenhq/childcheck/pkg/schema"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CHILDCHECK_MODE=set.
const EnvPrefix = "CHILDCHECK"

// ProjectConfigFiles are looked up, in order, in the project directory.
var ProjectConfigFiles = []string{
	".childcheck.yaml",
	".childcheck.yml",
	".childcheck.json",
	".childcheck.toml",
}

// ErrInvalidConfig is wrapped by every configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for childcheck
type Config struct {
	Root         string          `mapstructure:"root"`
	RootManifest string          `mapstructure:"root_manifest"`
	Mode         string          `mapstructure:"mode"`
	Dedupe       bool            `mapstructure:"dedupe"`
	CollectAll   bool            `mapstructure:"collect_all"`
	Concurrency  int             `mapstructure:"concurrency"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	Format       string          `mapstructure:"format"`
	IgnoreFile   string          `mapstructure:"ignore_file"`
	Gitignore    bool            `mapstructure:"gitignore"`
	Ignore       []string        `mapstructure:"ignore"`
	Levels       []checker.Level `mapstructure:"levels"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-"`
}

var defaultConfig = Config{
	Root:         ".",
	RootManifest: checker.DefaultRootManifest,
	Mode:         string(checker.ModeCount),
	Concurrency:  1,
	Format:       string(report.FormatText),
	IgnoreFile:   ignore.DefaultFile,
	Ignore:       []string{},
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"root_manifest": "root-manifest",
	"mode":          "mode",
	"dedupe":        "dedupe",
	"collect_all":   "collect-all",
	"concurrency":   "concurrency",
	"timeout":       "timeout",
	"format":        "format",
	"ignore_file":   "ignore-file",
	"gitignore":     "gitignore",
	"ignore":        "ignore",
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. When empty the project files are
	// searched in Dir.
	File string
	// Dir is the project directory. Empty means the working directory.
	Dir string
	// Flags, when set, override file and environment values for the flags
	// the user actually passed.
	Flags *pflag.FlagSet
}

// Load resolves configuration with precedence flags > environment >
// config file > defaults.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", defaultConfig.Root)
	v.SetDefault("root_manifest", defaultConfig.RootManifest)
	v.SetDefault("mode", defaultConfig.Mode)
	v.SetDefault("dedupe", defaultConfig.Dedupe)
	v.SetDefault("collect_all", defaultConfig.CollectAll)
	v.SetDefault("concurrency", defaultConfig.Concurrency)
	v.SetDefault("timeout", defaultConfig.Timeout)
	v.SetDefault("format", defaultConfig.Format)
	v.SetDefault("ignore_file", defaultConfig.IgnoreFile)
	v.SetDefault("gitignore", defaultConfig.Gitignore)
	v.SetDefault("ignore", defaultConfig.Ignore)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	source, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := readConfigFile(v, source); err != nil {
			return nil, err
		}
	}

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = checker.DefaultLevels()
	}
	cfg.Source = source
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := defaultConfig
	cfg.Ignore = []string{}
	cfg.Levels = checker.DefaultLevels()
	return &cfg
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("%w: config file %s: %v", ErrInvalidConfig, opts.File, err)
		}
		return opts.File, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range ProjectConfigFiles {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// readConfigFile validates the file against the embedded config schema
// before merging it into v, so unknown keys and wrong types are reported
// with their location instead of being silently dropped.
func readConfigFile(v *viper.Viper, path string) error {
	data, err := safeio.ReadFileContained(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("%w: cannot read %s: %v", ErrInvalidConfig, path, err)
	}
	configType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if configType == "yml" {
		configType = "yaml"
	}

	raw := viper.New()
	raw.SetConfigType(configType)
	if err := raw.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: cannot parse %s: %v", ErrInvalidConfig, path, err)
	}
	res, err := schema.Validate(raw.AllSettings(), assets.ConfigSchema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, res.Summary())
	}

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: cannot parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidConfig)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalidConfig, c.Timeout)
	}
	if _, err := safeio.CleanUserPath(c.IgnoreFile); err != nil {
		return fmt.Errorf("%w: ignore_file %q: %v", ErrInvalidConfig, c.IgnoreFile, err)
	}
	if err := c.ToOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ToOptions converts c into checker options.
func (c *Config) ToOptions() checker.Options {
	return checker.Options{
		Levels:       c.Levels,
		RootManifest: c.RootManifest,
		Mode:         checker.Mode(strings.ToLower(c.Mode)),
		Dedupe:       c.Dedupe,
		CollectAll:   c.CollectAll,
		Concurrency:  c.Concurrency,
	}
}

// IgnoreOptions returns the ignore layers to load under the content root.
func (c *Config) IgnoreOptions() ignore.Options {
	return ignore.Options{
		File:      c.IgnoreFile,
		Gitignore: c.Gitignore,
		Extra:     c.Ignore,
	}
}

// OutputFormat returns the parsed report format.
func (c *Config) OutputFormat() report.Format {
	f, err := report.ParseFormat(c.Format)
	if err != nil {
		return report.FormatText
	}
	return f
}
