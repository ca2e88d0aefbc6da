package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sonemaro/dbwalk/pkg/loader"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application
type Config struct {
	// SystemDir is the shipped database directory
	SystemDir string

	// SystemOptional makes a missing SystemDir a warning instead of an error
	SystemOptional bool

	// LocalDir is the administrator override directory
	LocalDir string

	// UserDir is the per-user directory
	UserDir string

	// Extensions selects files by suffix (empty accepts every regular file)
	Extensions []string

	// Workers is the number of roots walked concurrently
	Workers int

	// RateLimit is the maximum number of root walks started per second (0 for unlimited)
	RateLimit int

	// MaxDepth is the maximum directory depth to walk (0 or -1 for unlimited)
	MaxDepth int

	// MaxLinkDepth bounds symbolic link hops along one path
	MaxLinkDepth int

	// IgnorePatterns is a list of patterns to skip during the walk
	IgnorePatterns []string

	// Output specifies the output format
	Output string

	// OutputFile is the path to write the output (empty for stdout)
	OutputFile string

	// NoProgress disables progress reporting
	NoProgress bool

	// NoColor disables colored output
	NoColor bool

	// Verbose sets the verbosity level
	Verbose int

	// LogFormat selects the log encoding (json or console)
	LogFormat string

	// ConfigFile is the file the values were read from, if any
	ConfigFile string
}

// validOutputFormats contains the list of supported output formats
var validOutputFormats = map[string]bool{
	string(OutputFormatList): true,
	string(OutputFormatTree): true,
	string(OutputFormatJSON): true,
	string(OutputFormatYAML): true,
	string(OutputFormatTOML): true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var keys = []string{
	"system_dir",
	"system_optional",
	"local_dir",
	"user_dir",
	"extensions",
	"workers",
	"rate_limit",
	"max_depth",
	"max_link_depth",
	"ignore",
	"output",
	"output_file",
	"no_progress",
	"no_color",
	"verbose",
	"log_format",
}

// Load reads configuration from configFile (if not empty) and environment
// variables and validates it
func Load(configFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("system_dir", DefaultSystemDir)
	v.SetDefault("system_optional", false)
	v.SetDefault("local_dir", DefaultLocalDir)
	v.SetDefault("user_dir", defaultUserDir())
	v.SetDefault("extensions", DefaultExtensions)
	v.SetDefault("workers", 1)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("max_depth", UnlimitedDepth)
	v.SetDefault("max_link_depth", DefaultMaxLinkDepth)
	v.SetDefault("output", string(OutputFormatList))
	v.SetDefault("no_progress", false)
	v.SetDefault("no_color", false)
	v.SetDefault("verbose", 0)
	v.SetDefault("log_format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := Config{
		SystemDir:      v.GetString("system_dir"),
		SystemOptional: v.GetBool("system_optional"),
		LocalDir:       v.GetString("local_dir"),
		UserDir:        v.GetString("user_dir"),
		Extensions:     listValue(v, "extensions"),
		Workers:        v.GetInt("workers"),
		RateLimit:      v.GetInt("rate_limit"),
		MaxDepth:       v.GetInt("max_depth"),
		MaxLinkDepth:   v.GetInt("max_link_depth"),
		IgnorePatterns: listValue(v, "ignore"),
		Output:         strings.ToLower(v.GetString("output")),
		OutputFile:     v.GetString("output_file"),
		NoProgress:     v.GetBool("no_progress"),
		NoColor:        v.GetBool("no_color"),
		Verbose:        verbosity(v.GetString("verbose")),
		LogFormat:      strings.ToLower(v.GetString("log_format")),
		ConfigFile:     v.ConfigFileUsed(),
	}

	// Handle special case for workers=0
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.MaxLinkDepth == 0 {
		cfg.MaxLinkDepth = DefaultMaxLinkDepth
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers count must be positive")
	}
	if c.Workers > runtime.NumCPU()*MaxWorkerMultiplier {
		return fmt.Errorf("workers count cannot exceed system CPU count * %d", MaxWorkerMultiplier)
	}

	if c.MaxDepth < UnlimitedDepth {
		return fmt.Errorf("max depth must be -1 (unlimited) or positive")
	}

	if c.MaxLinkDepth < 0 {
		return fmt.Errorf("max link depth must be positive")
	}

	if !validOutputFormats[c.Output] {
		return fmt.Errorf("invalid output format: must be one of [list tree json yaml toml]")
	}

	if c.LogFormat != "" && !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log format: must be one of [json console]")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	for _, pattern := range c.IgnorePatterns {
		if _, err := filepath.Match(strings.TrimPrefix(strings.TrimSuffix(pattern, "/"), "**/"), ""); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// Roots returns the configured search roots in load order
func (c Config) Roots() []walker.RootSpec {
	candidates := []walker.RootSpec{
		{Path: c.SystemDir, TolerateMissing: c.SystemOptional, Label: LabelSystem},
		{Path: c.LocalDir, TolerateMissing: true, Label: LabelLocal},
		{Path: c.UserDir, TolerateMissing: true, Label: LabelUser},
	}

	roots := make([]walker.RootSpec, 0, len(candidates))
	for _, root := range candidates {
		if strings.TrimSpace(root.Path) == "" {
			continue
		}
		root.Path = filepath.Clean(root.Path)
		roots = append(roots, root)
	}
	return roots
}

// WalkerConfig returns the per-root walk settings
func (c Config) WalkerConfig() walker.Config {
	var match walker.MatchFunc
	if len(c.Extensions) > 0 {
		match = walker.MatchExtensions(c.Extensions...)
	}
	return walker.Config{
		Match:          match,
		MaxLinkDepth:   c.MaxLinkDepth,
		MaxDepth:       c.MaxDepth,
		IgnorePatterns: c.IgnorePatterns,
	}
}

// LoaderConfig returns the settings for a load pass
func (c Config) LoaderConfig() loader.Config {
	return loader.Config{
		Workers:   c.Workers,
		RateLimit: c.RateLimit,
		Walker:    c.WalkerConfig(),
	}
}

// String returns a string representation of the configuration
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{SystemDir: %s, SystemOptional: %v, LocalDir: %s, UserDir: %s, "+
			"Extensions: %v, Workers: %d, RateLimit: %d, MaxDepth: %d, MaxLinkDepth: %d, "+
			"IgnorePatterns: %v, Output: %s, OutputFile: %s, NoProgress: %v, NoColor: %v, "+
			"Verbose: %d, LogFormat: %s}",
		c.SystemDir, c.SystemOptional, c.LocalDir, c.UserDir,
		c.Extensions, c.Workers, c.RateLimit, c.MaxDepth, c.MaxLinkDepth,
		c.IgnorePatterns, c.Output, c.OutputFile, c.NoProgress, c.NoColor,
		c.Verbose, c.LogFormat,
	)
}

func defaultUserDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "dbwalk", "db")
}

// listValue reads key as a list. Strings from the environment are split on
// commas; lists from a config file are taken as is.
func listValue(v *viper.Viper, key string) []string {
	var items []string
	if s, ok := v.Get(key).(string); ok {
		items = strings.Split(s, ",")
	} else {
		items = v.GetStringSlice(key)
	}

	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// verbosity accepts either a number or a run of 'v's.
func verbosity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return strings.Count(s, "v")
}
