package platform

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/sticky/pkg/core"
)

// ConfigFile is the name FindRoot and the CLI look for.
const ConfigFile = "sticky.yaml"

// Config is the on-disk configuration of a board.
type Config struct {
	Store     string       `yaml:"store"`
	Policy    string       `yaml:"policy"`
	Namespace string       `yaml:"namespace"`
	KeyPrefix string       `yaml:"key_prefix"`
	Layout    *core.Layout `yaml:"layout,omitempty"`
}

// DefaultConfig keeps notes in memory with the default namespace and layout.
func DefaultConfig() Config {
	return Config{
		Store:     "memory://",
		Policy:    core.FailLoud.String(),
		Namespace: core.DefaultNamespace,
		KeyPrefix: core.DefaultKeyPrefix,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. A missing file is not an
// error. Layout keys left out of the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	layout := core.DefaultLayout()
	cfg.Layout = &layout
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STICKY_STORE, STICKY_POLICY and STICKY_NAMESPACE.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if v := getenv("STICKY_STORE"); v != "" {
		c.Store = v
	}
	if v := getenv("STICKY_POLICY"); v != "" {
		c.Policy = v
	}
	if v := getenv("STICKY_NAMESPACE"); v != "" {
		c.Namespace = v
	}
	return c
}

// layout returns the configured layout, falling back to the default grid.
func (c Config) layout() core.Layout {
	if c.Layout == nil {
		return core.DefaultLayout()
	}
	return *c.Layout
}
