// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/internal/fallback"
	"github.com/pdiddy/agroscope/internal/history"
	"github.com/pdiddy/agroscope/internal/secrets"
	"github.com/pdiddy/agroscope/pkg/types"
)

// app carries the per-invocation dependencies shared by all commands.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	cfg        types.AppConfig
	logger     zerolog.Logger
	catalog    *fallback.Catalog
	catalogSrc string

	client  *dataaccess.Client
	history *history.Store
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: zerolog.Nop(),
	}
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"base-url":      "api.base_url",
	"timeout":       "api.timeout",
	"fallback-file": "fallback.file",
	"data-dir":      "history.dir",
	"secrets-dir":   "secrets.dir",
	"log-level":     "log.level",
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	for flag, key := range flagKeys {
		_ = a.v.BindPFlag(key, fs.Lookup(flag))
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", types.DefaultBaseURL)
	v.SetDefault("api.timeout", types.DefaultTimeout.String())
	v.SetDefault("api.user_agent", types.DefaultUserAgent)
	v.SetDefault("api.max_retries", types.DefaultMaxRetries)
	for name, path := range types.DefaultRoutes() {
		v.SetDefault("api.routes."+name, path)
	}
	v.SetDefault("fallback.file", "")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dir", types.DefaultHistoryDir)
	v.SetDefault("secrets.dir", secrets.DefaultDir)
	v.SetDefault("log.level", types.DefaultLogLevel)
}

// setup reads configuration and builds the logger and fallback catalog. The
// backend client and history store are opened on demand by the commands
// that need them.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.readConfig(cmd); err != nil {
		return err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.cfg.Log.Level = "debug"
	}
	if off, _ := cmd.Flags().GetBool("no-history"); off {
		a.cfg.History.Enabled = false
	}
	a.logger = newLogger(a.errOut, a.cfg.Log.Level)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug().Str("file", used).Msg("using config file")
	}

	if a.cfg.Fallback.File != "" {
		c, err := fallback.LoadFile(a.cfg.Fallback.File)
		if err != nil {
			return err
		}
		a.catalog, a.catalogSrc = c, a.cfg.Fallback.File
	} else {
		a.catalog, a.catalogSrc = fallback.Default(), "embedded"
	}
	return nil
}

func (a *app) readConfig(cmd *cobra.Command) error {
	v := a.v
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("agroscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "agroscope"))
		}
	}

	v.SetEnvPrefix("AGROSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	timeout, err := durationMillis(v, "api.timeout")
	if err != nil {
		return err
	}

	a.cfg = types.AppConfig{
		API: types.ClientConfig{
			BaseURL:    v.GetString("api.base_url"),
			Timeout:    timeout,
			UserAgent:  v.GetString("api.user_agent"),
			MaxRetries: v.GetInt("api.max_retries"),
			Routes:     readRoutes(v),
		},
		Fallback: types.FallbackConfig{File: v.GetString("fallback.file")},
		History: types.HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Dir:     v.GetString("history.dir"),
		},
		Log: types.LogConfig{Level: v.GetString("log.level")},
	}
	return nil
}

// readRoutes merges routes declared under api.routes with per-route
// overrides, so AGROSCOPE_API_ROUTES_CROP_PRODUCERS also applies.
func readRoutes(v *viper.Viper) types.RouteConfig {
	routes := types.RouteConfig{}
	for name, path := range v.GetStringMapString("api.routes") {
		routes[name] = path
	}
	for _, name := range types.DefaultRoutes().Names() {
		if path := v.GetString("api.routes." + name); path != "" {
			routes[name] = path
		}
	}
	return routes
}

// durationMillis reads key as a Go duration ("4s", "750ms"). A bare number
// is taken as milliseconds.
func durationMillis(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("%s: negative timeout %q", key, raw)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is neither a duration nor a number of milliseconds", key, raw)
	}
	return d, nil
}

// connect builds the backend client, opening the history store as an
// additional observer when enabled. History failures only disable history.
func (a *app) connect() (*dataaccess.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	store, err := secrets.Load(a.v.GetString("secrets.dir"), a.logger)
	if err != nil {
		return nil, err
	}
	cfg := a.cfg.API
	cfg.Token = store.APIToken(a.v.GetString("api.token"))

	observers := []dataaccess.Observer{
		dataaccess.LogObserver{Logger: a.component("dataaccess")},
	}
	if h := a.openHistory(); h != nil {
		observers = append(observers, h)
	}

	a.client = dataaccess.New(cfg, a.catalog, dataaccess.WithObserver(dataaccess.MultiObserver(observers...)))
	a.logger.Debug().
		Str("base_url", a.client.Config().BaseURL).
		Dur("timeout", a.client.Config().Timeout).
		Str("fallback", a.catalogSrc).
		Bool("token", cfg.Token != "").
		Msg("client ready")
	return a.client, nil
}

// openHistory returns the history store, or nil when history is disabled or
// the database cannot be opened.
func (a *app) openHistory() *history.Store {
	if a.history != nil || !a.cfg.History.Enabled {
		return a.history
	}
	h, err := history.Open(a.cfg.History.Dir, a.component("history"))
	if err != nil {
		a.logger.Warn().Err(err).Msg("history disabled")
		return nil
	}
	a.history = h
	return h
}

func (a *app) component(name string) zerolog.Logger {
	return a.logger.With().Str("component", name).Logger()
}

func (a *app) close() error {
	if a.history == nil {
		return nil
	}
	err := a.history.Close()
	a.history = nil
	return err
}

// newLogger writes human-readable logs to w. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
