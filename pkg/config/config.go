// Package config loads and saves gitscroll settings as TOML.
//
// A missing config file is not an error: [Load] returns [Default]. Command
// line flags override whatever the file sets.
//
//	cfg, err := config.Load(config.DefaultPath())
//	cfg.Layout.Mode = "treemap"
//	err = cfg.Save(config.DefaultPath())
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
)

// Config is the full settings file.
type Config struct {
	Scan      Scan      `toml:"scan"`
	Layout    Layout    `toml:"layout"`
	Animation Animation `toml:"animation"`
	Source    Source    `toml:"source"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Scan controls directory scanning.
type Scan struct {
	Ignore   []string `toml:"ignore"`
	MaxDepth int      `toml:"max_depth"`
	Analyze  bool     `toml:"analyze"`
	Workers  int      `toml:"workers"`
}

// Layout holds the defaults for computed layouts.
type Layout struct {
	Mode   string  `toml:"mode"`
	Metric string  `toml:"metric"`
	Zoom   float64 `toml:"zoom"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Animation controls zoom transitions in the viewer.
type Animation struct {
	Duration Duration `toml:"duration"`
	Step     float64  `toml:"step"`
}

// Source controls repository cloning.
type Source struct {
	Keep     bool   `toml:"keep"`
	CloneDir string `toml:"clone_dir"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend   string   `toml:"backend"` // file, redis or none
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Server configures gitscroll serve.
type Server struct {
	Addr     string `toml:"addr"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
	StoreDir string `toml:"store_dir"`
}

// Duration is a time.Duration that reads and writes as a TOML string such
// as "300ms".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Scan: Scan{
			Ignore: []string{".git", "node_modules", "target", ".DS_Store"},
		},
		Layout: Layout{
			Mode:   layout.Auto.String(),
			Metric: string(metric.KindBytes),
			Zoom:   layout.MinZoom,
			Width:  800,
			Height: 600,
		},
		Animation: Animation{
			Duration: Duration{300 * time.Millisecond},
			Step:     0.1,
		},
		Cache: Cache{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Server: Server{
			Addr:     ":8080",
			Database: "gitscroll",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/gitscroll/config.toml, or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gitscroll.toml"
	}
	return filepath.Join(dir, "gitscroll", "config.toml")
}

// DefaultCacheDir returns the platform cache directory for gitscroll.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gitscroll-cache")
	}
	return filepath.Join(dir, "gitscroll")
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func (c Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Validate checks every section.
func (c Config) Validate() error {
	for _, p := range c.Scan.Ignore {
		if err := errors.ValidateIgnorePattern(p); err != nil {
			return err
		}
	}
	if c.Scan.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scan.max_depth must not be negative")
	}
	if _, err := layout.ParseMode(c.Layout.Mode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMode, err, "layout.mode")
	}
	if _, err := metric.ForKind(metric.Kind(c.Layout.Metric)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMetric, err, "layout.metric")
	}
	if c.Layout.Zoom < layout.MinZoom || c.Layout.Zoom > layout.MaxZoom {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.zoom must be within [%g, %g]", layout.MinZoom, layout.MaxZoom)
	}
	if err := errors.ValidateCanvas(c.Layout.Width, c.Layout.Height); err != nil {
		return err
	}
	if c.Animation.Duration.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "animation.duration must not be negative")
	}
	if c.Animation.Step <= 0 || c.Animation.Step > layout.MaxZoom-layout.MinZoom {
		return errors.New(errors.ErrCodeInvalidConfig, "animation.step must be within (0, %g]", layout.MaxZoom-layout.MinZoom)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	return nil
}

// String renders cfg as TOML.
func (c Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
