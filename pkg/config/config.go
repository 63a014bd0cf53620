// Package config loads the tool configuration from flags, environment and an
// optional YAML file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// GH_RELEASE_MILESTONES_REPOSITORY.
const EnvPrefix = "GH_RELEASE_MILESTONES"

// Keys lists every configuration key the tool reads.
var Keys = []string{
	"token", "repository", "base_ref", "backport_label", "excluded_labels", "max_backport_depth",
	"board.project_id", "board.comment_field_id", "board.version_field_id",
	"rate_limit.requests_per_second", "rate_limit.burst", "rate_limit.max_retries",
	"log_level",
}

// DefaultExcludedLabels mark changes that never need release-note tracking.
var DefaultExcludedLabels = []string{
	".CI & Tests",
	".Building & Releasing",
	"Type:Documentation",
}

// Config represents the full configuration.
type Config struct {
	Token            string          `mapstructure:"token"`
	Repository       string          `mapstructure:"repository"`
	BaseRef          string          `mapstructure:"base_ref"`
	BackportLabel    string          `mapstructure:"backport_label"`
	ExcludedLabels   []string        `mapstructure:"excluded_labels"`
	MaxBackportDepth int             `mapstructure:"max_backport_depth"`
	Board            BoardConfig     `mapstructure:"board"`
	RateLimit        RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel         string          `mapstructure:"log_level"`
}

// BoardConfig identifies the Projects V2 board gaps are filed into and its two
// text fields.
type BoardConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	CommentFieldID string `mapstructure:"comment_field_id"`
	VersionFieldID string `mapstructure:"version_field_id"`
}

// Enabled reports whether enough of the board is configured to file items.
func (b BoardConfig) Enabled() bool {
	return b.ProjectID != "" && b.CommentFieldID != "" && b.VersionFieldID != ""
}

// RateLimitConfig paces GitHub API calls.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxRetries        int     `mapstructure:"max_retries"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backport_label", "was-backported")
	v.SetDefault("excluded_labels", DefaultExcludedLabels)
	v.SetDefault("max_backport_depth", 10)
	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("log_level", "info")
}

// BindEnv wires the environment variables read by the tool.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("token", EnvPrefix+"_TOKEN", "GITHUB_TOKEN")

	// Unmarshal only sees keys viper already knows about.
	for _, key := range Keys {
		if key != "token" {
			_ = v.BindEnv(key)
		}
	}
}

// Load unmarshals v into a Config with defaults applied.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// UnknownKeys returns the keys set in v that the tool does not read, usually
// typos in a config file.
func UnknownKeys(v *viper.Viper) []string {
	known := make(map[string]bool, len(Keys))
	for _, key := range Keys {
		known[key] = true
	}
	var unknown []string
	for _, key := range v.AllKeys() {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// OwnerRepo splits Repository into its owner and name.
func (c *Config) OwnerRepo() (string, string, error) {
	parts := strings.Split(c.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q must be in owner/repo format", c.Repository)
	}
	return parts[0], parts[1], nil
}

// Validate returns every problem found in cfg. The token is only required when
// requireToken is set, so a config file can be checked offline.
func Validate(cfg *Config, requireToken bool) []string {
	var errs []string

	if requireToken && cfg.Token == "" {
		errs = append(errs, "token is required (--token, GITHUB_TOKEN or "+EnvPrefix+"_TOKEN)")
	}

	if cfg.Repository == "" {
		errs = append(errs, "repository is required")
	} else if _, _, err := cfg.OwnerRepo(); err != nil {
		errs = append(errs, err.Error())
	}

	if cfg.MaxBackportDepth < 1 {
		errs = append(errs, fmt.Sprintf("max_backport_depth must be at least 1, got %d", cfg.MaxBackportDepth))
	}

	board := cfg.Board
	set := 0
	for _, id := range []string{board.ProjectID, board.CommentFieldID, board.VersionFieldID} {
		if id != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, "board requires project_id, comment_field_id and version_field_id together")
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Sprintf("rate_limit.requests_per_second must be positive, got %v", cfg.RateLimit.RequestsPerSecond))
	}
	if cfg.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Sprintf("rate_limit.burst must be at least 1, got %d", cfg.RateLimit.Burst))
	}
	if cfg.RateLimit.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("rate_limit.max_retries must not be negative, got %d", cfg.RateLimit.MaxRetries))
	}

	seen := make(map[string]bool)
	for i, label := range cfg.ExcludedLabels {
		if strings.TrimSpace(label) == "" {
			errs = append(errs, fmt.Sprintf("excluded_labels[%d]: label is empty", i))
			continue
		}
		if seen[label] {
			errs = append(errs, fmt.Sprintf("excluded_labels[%d]: duplicate label %q", i, label))
		}
		seen[label] = true
	}

	return errs
}
