package main

import (
	"flag"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nikmy/roombook/internal/api"
	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/internal/pubsub"
	"github.com/nikmy/roombook/internal/storage"
	"github.com/nikmy/roombook/internal/telegram"
	"github.com/nikmy/roombook/pkg/environment"
	"github.com/nikmy/roombook/pkg/errors"
)

type Config struct {
	Environment environment.Env `yaml:"Environment"`
	Ledger      LedgerConfig    `yaml:"Ledger"`
	Storage     storage.Config  `yaml:"Storage"`
	Kafka       pubsub.Config   `yaml:"Kafka"`
	HTTP        api.Config      `yaml:"HTTP"`
	Telegram    telegram.Config `yaml:"Telegram"`
}

type LedgerConfig struct {
	Strategy    string           `yaml:"strategy"`
	HistorySize int              `yaml:"history_size"`
	Resources   []ResourceConfig `yaml:"resources"`
}

// ResourceConfig is either a bare key or a mapping with display data.
type ResourceConfig struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func (r *ResourceConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = ResourceConfig{Key: node.Value}
		return nil
	}

	type plain ResourceConfig
	var p plain
	err := node.Decode(&p)
	if err != nil {
		return errors.WrapFailf(err, "decode resource at line %d", node.Line)
	}
	if p.Key == "" {
		return errors.Errorf("resource at line %d has no key", node.Line)
	}

	*r = ResourceConfig(p)
	return nil
}

func (c LedgerConfig) Catalog() []ledger.ResourceInfo {
	infos := make([]ledger.ResourceInfo, 0, len(c.Resources))
	for _, r := range c.Resources {
		infos = append(infos, ledger.ResourceInfo{Key: r.Key, Name: r.Name, Description: r.Description})
	}
	return infos
}

type flags struct {
	configPath string
	env        string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "config.yaml", "path to yaml config")
	flag.StringVar(&f.env, "env", "", "environment (dev, prod), overrides config")
	flag.Parse()
	return f
}

func loadConfig(f flags) (*Config, error) {
	path, err := filepath.Abs(f.configPath)
	if err != nil {
		return nil, errors.WrapFail(err, "build path to config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFailf(err, "read %q", path)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}

	if f.env != "" {
		cfg.Environment = environment.FromString(f.env)
	}

	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, errors.WrapFail(err, "parse yaml")
	}
	return &cfg, nil
}
