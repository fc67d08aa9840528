package catalog

import (
	"sync"

	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// Config holds configuration for creating a Catalog.
type Config struct {
	Logger *zap.Logger
}

// Catalog is the id-keyed store of plugin metadata.
//
// Its public methods never return errors: unknown ids yield zero values and
// duplicate registrations overwrite with a warning. Reads hand out clones, so
// the only in-place mutation is SetActivationState.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*plugin.Metadata
	order   []string // insertion order of live ids

	listeners listenerSet
	logger    *zap.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(cfg Config) *Catalog {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Catalog{
		entries: make(map[string]*plugin.Metadata),
		logger:  cfg.Logger,
	}
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns a process-wide catalog for callers that have no injected
// instance. Application startup should prefer NewCatalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog(Config{})
	})
	return defaultCatalog
}

// Register inserts or overwrites metadata by id. An overwrite keeps the
// entry's original position and logs a warning naming both registrations.
// Metadata with an empty id or family is rejected with a warning.
func (c *Catalog) Register(m *plugin.Metadata) {
	entry, ok := c.prepare(m)
	if !ok {
		return
	}

	c.mu.Lock()
	prev, exists := c.entries[entry.ID]
	c.entries[entry.ID] = entry
	if !exists {
		c.order = append(c.order, entry.ID)
	}
	c.mu.Unlock()

	change := Change{Kind: ChangeRegistered, ID: entry.ID, Family: entry.Family, Current: entry.ActivationState}
	if exists {
		c.logger.Warn("plugin id already registered, overwriting",
			zap.String("id", entry.ID),
			zap.String("existing_family", prev.Family.String()),
			zap.String("existing_origin", prev.Origin.String()),
			zap.String("incoming_family", entry.Family.String()),
			zap.String("incoming_origin", entry.Origin.String()),
		)
		change.Kind = ChangeReplaced
		change.PreviousFamily = prev.Family
		change.Previous = prev.ActivationState
	}
	c.notify(change)
}

// RegisterIfAbsent registers m only when its id is free, reporting whether
// it did. The check and the insert happen under one lock.
func (c *Catalog) RegisterIfAbsent(m *plugin.Metadata) bool {
	entry, ok := c.prepare(m)
	if !ok {
		return false
	}

	c.mu.Lock()
	if _, exists := c.entries[entry.ID]; exists {
		c.mu.Unlock()
		return false
	}
	c.entries[entry.ID] = entry
	c.order = append(c.order, entry.ID)
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeRegistered, ID: entry.ID, Family: entry.Family, Current: entry.ActivationState})
	return true
}

func (c *Catalog) prepare(m *plugin.Metadata) (*plugin.Metadata, bool) {
	if m == nil {
		c.logger.Warn("ignoring nil plugin metadata")
		return nil, false
	}
	if m.ID == "" || !m.Family.Valid() {
		c.logger.Warn("ignoring plugin metadata without id or family",
			zap.String("id", m.ID), zap.String("family", m.Family.String()))
		return nil, false
	}

	entry := m.Clone()
	if entry.Name == "" {
		entry.Name = entry.ID
	}
	if !entry.ActivationState.Valid() {
		entry.ActivationState = plugin.StateActive
	}
	return entry, true
}

// Get returns a copy of the metadata registered under id.
func (c *Catalog) Get(id string) (*plugin.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// Len returns the number of registered plugins.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetAll returns copies of every entry in insertion order.
func (c *Catalog) GetAll() []*plugin.Metadata {
	return c.filter(func(*plugin.Metadata) bool { return true })
}

// GetByFamily returns the entries tagged with family.
func (c *Catalog) GetByFamily(family plugin.Family) []*plugin.Metadata {
	return c.filter(func(m *plugin.Metadata) bool { return m.Family == family })
}

// GetByOrigin returns the entries with the given origin.
func (c *Catalog) GetByOrigin(origin plugin.Origin) []*plugin.Metadata {
	return c.filter(func(m *plugin.Metadata) bool { return m.Origin == origin })
}

// GetActive returns the entries currently switched on.
func (c *Catalog) GetActive() []*plugin.Metadata {
	return c.filter(func(m *plugin.Metadata) bool { return m.IsActive() })
}

// GetBuiltins returns the entries shipped with the application.
func (c *Catalog) GetBuiltins() []*plugin.Metadata {
	return c.GetByOrigin(plugin.OriginBuiltin)
}

// GetUserPlugins returns entries from plugin directories and UI bundles.
func (c *Catalog) GetUserPlugins() []*plugin.Metadata {
	return c.filter(func(m *plugin.Metadata) bool { return m.Origin.IsUser() })
}

// SetActivationState changes the state of id in place. Unknown ids and
// invalid states are ignored; listeners are only notified on a change.
//
// Lifecycle code should go through activation.Manager, which adds the
// canDisable check.
func (c *Catalog) SetActivationState(id string, state plugin.ActivationState) bool {
	if !state.Valid() {
		return false
	}

	c.mu.Lock()
	m, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	prev := m.ActivationState
	m.ActivationState = state
	family := m.Family
	c.mu.Unlock()

	if prev == state {
		return true
	}
	c.notify(Change{Kind: ChangeActivation, ID: id, Family: family, Previous: prev, Current: state})
	return true
}

// CanDisable reports whether id may be deactivated. Unknown ids return false,
// matching every other unknown-id path.
func (c *Catalog) CanDisable(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[id]
	return ok && m.CanDisable
}

// Unregister removes id and reports whether it existed.
func (c *Catalog) Unregister(id string) bool {
	return c.unregister(id, "")
}

// UnregisterFamily removes id only when its entry belongs to family. An entry
// of another family is left alone and false is returned.
func (c *Catalog) UnregisterFamily(id string, family plugin.Family) bool {
	if family == "" {
		return false
	}
	return c.unregister(id, family)
}

func (c *Catalog) unregister(id string, family plugin.Family) bool {
	c.mu.Lock()
	m, ok := c.entries[id]
	if !ok || (family != "" && m.Family != family) {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, id)
	c.removeFromOrder(id)
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeUnregistered, ID: id, Family: m.Family, Previous: m.ActivationState})
	return true
}

// Clear empties the catalog. Subscribers get a single ChangeCleared
// notification when anything was removed.
func (c *Catalog) Clear() {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*plugin.Metadata)
	c.order = nil
	c.mu.Unlock()

	if removed > 0 {
		c.notify(Change{Kind: ChangeCleared})
	}
}

func (c *Catalog) filter(keep func(*plugin.Metadata) bool) []*plugin.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*plugin.Metadata, 0, len(c.order))
	for _, id := range c.order {
		if m := c.entries[id]; keep(m) {
			result = append(result, m.Clone())
		}
	}
	return result
}

func (c *Catalog) removeFromOrder(id string) {
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
