// Package config holds process-wide, viper-backed configuration for the
// dispatcher and application, layered from defaults, a config file,
// COBJECT_* environment variables, and CLI flags — in that order of
// increasing precedence, matching viper's own layering.
//
// Grounded on papapumpkin-quasar/internal/config/config.go's
// SetDefault-then-Unmarshal shape.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the process-wide runtime configuration.
type Config struct {
	// Driver selects the dispatcher's polling driver: "default" (platform
	// best-effort), "epoll" (Linux only), or "select" (portable, headless).
	// Passed straight through to dispatch.NewFromName by app.NewWithDriver.
	Driver string `mapstructure:"driver"`
	// DefaultTimerTickMs is the interval, in milliseconds, of the repeating
	// timer cmd/kerneldemo's run subcommand arms. It does not change how long
	// Application.Exec's ProcessEvents calls block, which is fixed at 50 ms.
	DefaultTimerTickMs int `mapstructure:"default_timer_tick_ms"`
	// Verbose raises the ambient logger to debug level.
	Verbose bool `mapstructure:"verbose"`
}

// RegisterFlags binds this package's config keys to CLI flags on fs, for
// callers (cmd/kerneldemo) that want them to appear in --help output and
// override the config file/environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("driver", "default", "dispatcher driver: default, epoll, or select")
	fs.Int("default-timer-tick-ms", 50, "interval in ms of the run subcommand's repeating timer")
	fs.Bool("verbose", false, "enable debug-level logging")
}

// Load reads configuration from viper: defaults, an optional
// .cobject.yaml (searched in the working directory and $HOME), COBJECT_*
// environment variables, and, if fs is non-nil and already parsed, its
// flag values.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("driver", "default")
	v.SetDefault("default_timer_tick_ms", 50)
	v.SetDefault("verbose", false)

	v.SetConfigName(".cobject")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("COBJECT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key, flagName := range map[string]string{
			"driver":                "driver",
			"default_timer_tick_ms": "default-timer-tick-ms",
			"verbose":               "verbose",
		} {
			if flag := fs.Lookup(flagName); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
