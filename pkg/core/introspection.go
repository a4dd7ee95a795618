package core

import (
	"github.com/aretw0/introspection"
)

// ControllerState exposes internal state for observability.
type ControllerState struct {
	PendingID string     `json:"pending_id,omitempty"`
	Layout    Layout     `json:"layout"`
	Store     StoreState `json:"store"`
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Namespace string `json:"namespace"`
	KeyPrefix string `json:"key_prefix"`
	Policy    string `json:"unavailable_policy"`
	CacheType string `json:"cache_type"`
	Opened    bool   `json:"opened"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	cacheType := "none"
	if s.cache != nil {
		cacheType = "cache"
		// Try to get component type if the cache implements introspection.Component
		if comp, ok := s.cache.(introspection.Component); ok {
			cacheType = comp.ComponentType()
		}
	}

	return StoreState{
		Namespace: s.config.Namespace,
		KeyPrefix: s.config.KeyPrefix,
		Policy:    s.config.Policy.String(),
		CacheType: cacheType,
		Opened:    s.bucket != nil,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pendingID string
	if p, ok := c.workspace.Pending(); ok {
		pendingID = p.ID
	}
	return ControllerState{
		PendingID: pendingID,
		Layout:    c.allocator.Layout(),
		Store:     c.store.State().(StoreState),
	}
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "controller"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
