// Package config loads craftree settings from a TOML file.
//
// A missing file is not an error; every field has a default. Command-line
// flags are applied on top of the loaded values by the CLI.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/pipeline"
)

const (
	appName  = "craftree"
	fileName = "config.toml"
)

// Config is the parsed configuration file.
type Config struct {
	Layout Layout `toml:"layout"`
	Label  Label  `toml:"label"`
	Render Render `toml:"render"`
	Server Server `toml:"server"`
	Cache  Cache  `toml:"cache"`
}

type Layout struct {
	RowSpacing    float64 `toml:"row_spacing"`
	ColumnSpacing float64 `toml:"column_spacing"`
}

type Label struct {
	FontSize     float64 `toml:"font_size"`
	Padding      float64 `toml:"padding"`
	CornerRadius float64 `toml:"corner_radius"`
}

type Render struct {
	Margin  float64  `toml:"margin"`
	Scale   float64  `toml:"scale"`
	Formats []string `toml:"formats"`
}

// Server configures `craftree serve`.
type Server struct {
	Addr            string        `toml:"addr"`
	DB              string        `toml:"db"`
	StaticDir       string        `toml:"static_dir"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	CachedPages     int           `toml:"cached_pages"`
	PageSize        int           `toml:"page_size"`
	SearchLimit     int           `toml:"search_limit"`
}

// Cache selects the cache backend. RedisURL wins over Dir when set.
type Cache struct {
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
	Disabled bool          `toml:"disabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{
			RowSpacing:    pipeline.DefaultRowSpacing,
			ColumnSpacing: pipeline.DefaultColumnSpacing,
		},
		Label: Label{
			FontSize:     pipeline.DefaultFontSize,
			Padding:      pipeline.DefaultPadding,
			CornerRadius: pipeline.DefaultCornerRadius,
		},
		Render: Render{
			Margin:  pipeline.DefaultMargin,
			Scale:   pipeline.DefaultScale,
			Formats: []string{"svg"},
		},
		Server: Server{
			Addr:            "127.0.0.1:8080",
			DB:              "Items.db",
			RefreshInterval: time.Minute,
			CachedPages:     10,
			PageSize:        1000,
			SearchLimit:     50,
		},
	}
}

// Path returns the default config file location,
// $XDG_CONFIG_HOME/craftree/config.toml or ~/.config/craftree/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// CacheDir returns the default cache directory,
// $XDG_CACHE_HOME/craftree or ~/.cache/craftree.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads path over the defaults. An empty path means [Path]; a missing
// default file yields the defaults, a missing explicit file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		if explicit {
			return cfg, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return Default(), nil
	}
	if err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges. Layout and render values are validated by
// the pipeline they feed.
func (c Config) Validate() error {
	opts := c.PipelineOptions()
	if err := opts.Validate(); err != nil {
		return err
	}
	s := c.Server
	switch {
	case s.RefreshInterval <= 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "server.refresh_interval must be positive")
	case s.PageSize <= 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "server.page_size must be positive")
	case s.CachedPages < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "server.cached_pages must not be negative")
	case s.SearchLimit <= 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "server.search_limit must be positive")
	case c.Cache.TTL < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Cache.RedisURL != "" && !strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "cache.redis_url must use redis:// or rediss://")
	}
	return nil
}

// PipelineOptions converts the layout, label and render sections.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		RowSpacing:    c.Layout.RowSpacing,
		ColumnSpacing: c.Layout.ColumnSpacing,
		FontSize:      c.Label.FontSize,
		Padding:       c.Label.Padding,
		Formats:       c.Render.Formats,
		Margin:        c.Render.Margin,
		CornerRadius:  c.Label.CornerRadius,
		Scale:         c.Render.Scale,
	}
}
