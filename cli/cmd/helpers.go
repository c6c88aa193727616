package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/log"
)

// loadConfig reads the optional config file named by --config.
// No flag means no config; helpers treat a nil config as "no value".
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

// configVal safely extracts a value from a possibly-nil config.
func configVal[T any](cfg *config.Config, get func(*config.Config) T) T {
	var zero T
	if cfg == nil {
		return zero
	}
	return get(cfg)
}

// resolveString resolves a setting with CLI > config > flag default
// precedence. An explicitly set flag always wins; the urfave default
// applies only when neither CLI nor config provides a value.
func resolveString(c *cli.Context, name, configVal string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if configVal != "" {
		return configVal
	}
	return c.String(name)
}

// resolveInt resolves an int setting with the same precedence as
// resolveString. A config zero counts as unset.
func resolveInt(c *cli.Context, name string, configVal int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	if configVal != 0 {
		return configVal
	}
	return c.Int(name)
}

// resolveInt64 is resolveInt for 64-bit settings (buffer sizes).
func resolveInt64(c *cli.Context, name string, configVal int64) int64 {
	if c.IsSet(name) {
		return c.Int64(name)
	}
	if configVal != 0 {
		return configVal
	}
	return c.Int64(name)
}

// resolveBool resolves a bool setting. A config false counts as
// unset, so only an explicit CLI flag can turn a config true off.
func resolveBool(c *cli.Context, name string, configVal bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	if configVal {
		return true
	}
	return c.Bool(name)
}

// resolveDuration resolves a duration setting. A config zero counts
// as unset.
func resolveDuration(c *cli.Context, name string, configVal time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if configVal != 0 {
		return configVal
	}
	return c.Duration(name)
}

// newLogger builds the command logger, honoring the app-level
// --log-level flag with config file fallback. Empty means info.
func newLogger(c *cli.Context, cfg *config.Config, workspace string) (*log.Logger, error) {
	level := resolveString(c, "log-level",
		configVal(cfg, func(cf *config.Config) string { return cf.Log.Level }))
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewLogger(workspace).AtLevel(lvl), nil
}
