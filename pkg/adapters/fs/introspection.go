package fs

import (
	"github.com/aretw0/introspection"
)

// CacheState exposes internal state for observability.
type CacheState struct {
	Root          string   `json:"root"`
	Namespaces    []string `json:"namespaces"`
	MustExist     bool     `json:"must_exist"`
	WatcherActive bool     `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	namespaces := make([]string, 0, len(c.opened))
	for ns := range c.opened {
		namespaces = append(namespaces, ns)
	}

	return CacheState{
		Root:          c.root,
		Namespaces:    namespaces,
		MustExist:     c.config.MustExist,
		WatcherActive: c.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Cache)(nil)
var _ introspection.Component = (*Cache)(nil)
