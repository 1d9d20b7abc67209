// Package config loads runtime configuration from, in order of
// precedence: defaults, a YAML file, RECALLKIT_* environment variables,
// and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces environment variables, e.g.
// RECALLKIT_REMOTE__BASE_URL sets remote.base_url.
const envPrefix = "RECALLKIT_"

// Config is the full runtime configuration.
type Config struct {
	DBPath string `koanf:"db_path" validate:"required"`

	Web struct {
		Addr string `koanf:"addr" validate:"required,hostname_port"`
	} `koanf:"web"`

	Remote struct {
		BaseURL string `koanf:"base_url" validate:"required,url"`
		APIKey  string `koanf:"api_key"`
		Token   string `koanf:"token"`
		UserID  string `koanf:"user_id"`
	} `koanf:"remote"`

	Sync struct {
		Interval   time.Duration `koanf:"interval" validate:"required"`
		MaxRetries int           `koanf:"max_retries" validate:"min=1"`
	} `koanf:"sync"`

	Scheduler struct {
		DesiredRetention float64 `koanf:"desired_retention" validate:"gt=0,lte=1"`
		MaximumInterval  int     `koanf:"maximum_interval" validate:"min=1"`
	} `koanf:"scheduler"`

	Import struct {
		ReposDir string `koanf:"repos_dir" validate:"required"`
	} `koanf:"import"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.DBPath = "recallkit.db"
	cfg.Web.Addr = "127.0.0.1:8484"
	cfg.Remote.BaseURL = "http://127.0.0.1:54321"
	cfg.Sync.Interval = 5 * time.Minute
	cfg.Sync.MaxRetries = 5
	cfg.Scheduler.DesiredRetention = 0.9
	cfg.Scheduler.MaximumInterval = 36500
	cfg.Import.ReposDir = "repos"
	return cfg
}

// defaultsMap flattens Default() into koanf keys. The defaults must
// live inside koanf itself: the flag layer skips unchanged flags only
// for keys already present, so defaults that are not loaded would be
// clobbered by zero-valued flag definitions.
func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"db_path":                     d.DBPath,
		"web.addr":                    d.Web.Addr,
		"remote.base_url":             d.Remote.BaseURL,
		"remote.api_key":              d.Remote.APIKey,
		"remote.token":                d.Remote.Token,
		"remote.user_id":              d.Remote.UserID,
		"sync.interval":               d.Sync.Interval,
		"sync.max_retries":            d.Sync.MaxRetries,
		"scheduler.desired_retention": d.Scheduler.DesiredRetention,
		"scheduler.maximum_interval":  d.Scheduler.MaximumInterval,
		"import.repos_dir":            d.Import.ReposDir,
	}
}

// Load builds the configuration. path may be empty to skip the file
// layer; flags may be nil to skip the flag layer.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps RECALLKIT_SECTION__SOME_KEY to section.some_key.
func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}
