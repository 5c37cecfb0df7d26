package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Checker    CheckerConfig     `yaml:"checker"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Sources    []SourceConfig    `yaml:"sources"`
	Publishers []PublisherConfig `yaml:"publishers"`
}

type DatabaseConfig struct {
	Path       string `yaml:"path"`
	MaxProxies int    `yaml:"max_proxies"`
}

type CheckerConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batch_size"`
}

type GeneratorConfig struct {
	MainDomain   string `yaml:"main_domain"`
	PathTemplate string `yaml:"path_template"`
	UUID         string `yaml:"uuid"`

	// Country db used to backfill missing country columns (optional).
	GeoIPCountryPath string `yaml:"geoip_country_path"`
}

type SourceConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type PublisherConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	// .env overrides are optional; a missing file is fine.
	_ = godotenv.Load()

	var cfg Config
	// Defaults
	cfg.Database.Path = "bugforge.db"
	cfg.Database.MaxProxies = 5000
	cfg.Checker.BaseURL = "https://proxyip-check.example.workers.dev"
	cfg.Checker.Timeout = 10 * time.Second
	cfg.Checker.BatchSize = 20
	cfg.Generator.PathTemplate = "/{ip}-{port}"

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: run on defaults plus env overrides.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	applyEnv(&cfg)

	if cfg.Checker.BatchSize <= 0 {
		cfg.Checker.BatchSize = 20
	}
	if cfg.Checker.Timeout <= 0 {
		cfg.Checker.Timeout = 10 * time.Second
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BUGFORGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BUGFORGE_CHECK_URL"); v != "" {
		cfg.Checker.BaseURL = v
	}
	if v := os.Getenv("BUGFORGE_UUID"); v != "" {
		cfg.Generator.UUID = v
	}
	if v := os.Getenv("BUGFORGE_MAIN_DOMAIN"); v != "" {
		cfg.Generator.MainDomain = v
	}
}

func (c *Config) FilterSources(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []SourceConfig
	for _, item := range c.Sources {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Sources = filtered
}

func (c *Config) FilterPublishers(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []PublisherConfig
	for _, item := range c.Publishers {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Publishers = filtered
}
