// Package config handles loading and saving llv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/llv/config.yaml
//
// Engine options carry zero-value defaults; Normalize fills them in so a
// missing or partial config file always yields a usable setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures one list engine.
type Options struct {
	// ItemExtent is the pixel height of one rendered item.
	ItemExtent int64 `yaml:"item_extent,omitempty"`
	// PageSize is the records-per-page for the page strategy, and the batch
	// size for the cursor strategy.
	PageSize int `yaml:"page_size,omitempty"`
	// Overscan is the symmetric render buffer in item extents.
	Overscan int `yaml:"overscan,omitempty"`
	// LoadThresholdFraction scales the boundary detector's edge threshold.
	LoadThresholdFraction float64 `yaml:"load_threshold_fraction,omitempty"`
	// PrefetchBefore / PrefetchAfter are the margin batch counts fetched
	// around a jump window. When only PrefetchTotal is set, it is split
	// evenly between the two.
	PrefetchBefore int `yaml:"prefetch_before,omitempty"`
	PrefetchAfter  int `yaml:"prefetch_after,omitempty"`
	PrefetchTotal  int `yaml:"prefetch_total,omitempty"`
	// Strategy selects the pagination strategy: cursor, page, or offset.
	Strategy string `yaml:"strategy,omitempty"`
	// DedupeItems keeps the first real record per id on overlapping merges.
	DedupeItems bool `yaml:"dedupe_items,omitempty"`
	// ViewportMultiplier is how many screenfuls an offset fetch loads.
	ViewportMultiplier int `yaml:"viewport_multiplier,omitempty"`
	// SettleDebounce is how long scrolling must stay quiet before a
	// scroll-settle jump fires.
	SettleDebounce time.Duration `yaml:"settle_debounce,omitempty"`
	// PrefetchDelay is the pause between sequential margin fetches.
	PrefetchDelay time.Duration `yaml:"prefetch_delay,omitempty"`
}

// Config is the top-level configuration for llv.
type Config struct {
	Engine  Options `yaml:"engine,omitempty"`
	DataDir string  `yaml:"data_dir,omitempty"`
}

// DefaultOptions returns engine options with all defaults filled.
func DefaultOptions() Options {
	o := Options{}
	o.Normalize()
	return o
}

// Normalize fills zero values with defaults and derives the prefetch split
// from a legacy total when the explicit counts are absent.
func (o *Options) Normalize() {
	if o.ItemExtent <= 0 {
		o.ItemExtent = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = 20
	}
	if o.Overscan <= 0 {
		o.Overscan = 3
	}
	if o.LoadThresholdFraction <= 0 {
		o.LoadThresholdFraction = 0.5
	}
	if o.ViewportMultiplier <= 0 {
		o.ViewportMultiplier = 3
	}
	if o.SettleDebounce <= 0 {
		o.SettleDebounce = 200 * time.Millisecond
	}
	if o.PrefetchDelay <= 0 {
		o.PrefetchDelay = 50 * time.Millisecond
	}
	if o.PrefetchBefore == 0 && o.PrefetchAfter == 0 {
		total := o.PrefetchTotal
		if total <= 0 {
			total = 2
		}
		o.PrefetchBefore = total / 2
		o.PrefetchAfter = total - o.PrefetchBefore
	}
	if o.Strategy == "" {
		o.Strategy = "offset"
	}
}

// Validate rejects option combinations no strategy can serve.
func (o Options) Validate() error {
	if o.ItemExtent <= 0 {
		return fmt.Errorf("item_extent must be positive, got %d", o.ItemExtent)
	}
	if o.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", o.PageSize)
	}
	if o.LoadThresholdFraction <= 0 || o.LoadThresholdFraction > 1 {
		return fmt.Errorf("load_threshold_fraction must be in (0,1], got %g", o.LoadThresholdFraction)
	}
	switch o.Strategy {
	case "cursor", "page", "offset":
	default:
		return fmt.Errorf("unknown strategy %q", o.Strategy)
	}
	return nil
}

// ConfigDir returns the XDG config directory for llv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "llv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "llv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns defaults if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return Config{Engine: DefaultOptions()}, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns defaults if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Engine.Normalize()
			return cfg, nil
		}
		cfg.Engine.Normalize()
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfg.Engine.Normalize()
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Engine.Normalize()
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
