// Package config loads cleanurl's application settings from built-in
// defaults, an optional config.toml and CLEANURL_ environment variables, in
// that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/getlantern/cleanurl"
	"github.com/getlantern/golog"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName names the directory under the user's config home.
	AppName = "cleanurl"

	// EnvPrefix prefixes every environment override. A double underscore
	// separates sections, so CLEANURL_REDIRECT__USER_AGENT sets
	// redirect.user_agent.
	EnvPrefix = "CLEANURL_"

	configFile  = "config.toml"
	matchersDir = "matchers"
)

var (
	log = golog.LoggerFor("cleanurl.config")
)

// Config holds the application settings.
type Config struct {
	// RulesDir, when set, replaces both the user matchers directory and the
	// builtin rules.
	RulesDir string   `koanf:"rules_dir"`
	Redirect Redirect `koanf:"redirect"`
	Watch    Watch    `koanf:"watch"`
	Metrics  Metrics  `koanf:"metrics"`
}

// Redirect configures the redirect resolver. A zero Rate disables rate
// limiting.
type Redirect struct {
	Timeout   time.Duration `koanf:"timeout"`
	Rate      float64       `koanf:"rate"`
	UserAgent string        `koanf:"user_agent"`
}

type Watch struct {
	File     string        `koanf:"file"`
	Interval time.Duration `koanf:"interval"`
}

// Metrics configures the metrics endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `koanf:"addr"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"rules_dir":           "",
		"redirect.timeout":    "10s",
		"redirect.rate":       0,
		"redirect.user_agent": cleanurl.DefaultUserAgent,
		"watch.file":          "",
		"watch.interval":      "500ms",
		"metrics.addr":        "",
	}
}

// Dir returns cleanurl's directory under the user's config home.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the location of the user's config file.
func DefaultPath() string {
	return filepath.Join(Dir(), configFile)
}

// UserMatchersDir returns the directory whose definitions, when present,
// replace the builtin rules.
func UserMatchersDir() string {
	return filepath.Join(Dir(), matchersDir)
}

// EnvKey maps an environment variable name to its config key.
func EnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Load reads the configuration. An empty path means DefaultPath. A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		log.Debugf("Loaded config from %v", path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %v", c.Watch.Interval)
	}
	if c.Redirect.Timeout < 0 {
		return fmt.Errorf("redirect.timeout must not be negative, got %v", c.Redirect.Timeout)
	}
	if c.Redirect.Rate < 0 {
		return fmt.Errorf("redirect.rate must not be negative, got %v", c.Redirect.Rate)
	}
	return nil
}

// RedirectorOptions converts the redirect settings for cleanurl.NewHTTPRedirector.
func (c *Config) RedirectorOptions() cleanurl.RedirectorOptions {
	return cleanurl.RedirectorOptions{
		Timeout:   c.Redirect.Timeout,
		Rate:      c.Redirect.Rate,
		UserAgent: c.Redirect.UserAgent,
	}
}
