// Package config loads and normalizes the site configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the immutable build configuration, supplied once per build.
type Config struct {
	ContentDir   string `yaml:"content_dir"`
	OutputDir    string `yaml:"output_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	Theme        string `yaml:"theme"`
	BasePath     string `yaml:"base_path"`
	Sanitize     bool   `yaml:"sanitize"`

	Site Site `yaml:"site"`

	// Navigation, when set, overrides the computed top-level navigation.
	Navigation []NavItem `yaml:"navigation"`

	Events  Events  `yaml:"events"`
	History History `yaml:"history"`
	Metrics Metrics `yaml:"metrics"`
}

// Site describes the published site. URL gates SEO artifact emission.
type Site struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// NavItem is one manual navigation entry.
type NavItem struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Events configures optional NATS build-event publishing.
type Events struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// History configures the optional sqlite build-history store.
type History struct {
	Path string `yaml:"path"`
}

// Metrics configures the optional Prometheus listener in watch mode.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Defaults returns a config with every defaultable field populated.
func Defaults() Config {
	return Config{
		ContentDir:   "content",
		OutputDir:    "dist",
		TemplatesDir: "templates",
		Events:       Events{Subject: "sitebuilder.builds"},
		History:      History{Path: ".sitebuilder/history.db"},
	}
}

// Load reads a YAML config file and applies defaults and env overrides. A
// missing file yields pure defaults so a conventional layout builds with no
// config at all.
func Load(path string) (Config, error) {
	cfg := Defaults()

	raw, err := os.ReadFile(path) // #nosec G304 -- path is the operator-supplied config flag
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables (typically from .env) override file
// values; explicit env wins over file, file wins over defaults.
func applyEnv(cfg *Config) {
	set := func(target *string, key string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	set(&cfg.ContentDir, "SITEBUILDER_CONTENT_DIR")
	set(&cfg.OutputDir, "SITEBUILDER_OUTPUT_DIR")
	set(&cfg.TemplatesDir, "SITEBUILDER_TEMPLATES_DIR")
	set(&cfg.Theme, "SITEBUILDER_THEME")
	set(&cfg.BasePath, "SITEBUILDER_BASE_PATH")
	set(&cfg.Site.URL, "SITEBUILDER_SITE_URL")
	set(&cfg.Events.URL, "SITEBUILDER_NATS_URL")
}

func normalize(cfg *Config) {
	defaults := Defaults()
	if cfg.ContentDir == "" {
		cfg.ContentDir = defaults.ContentDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = defaults.TemplatesDir
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = defaults.Events.Subject
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
}
