package activation

import (
	"context"
	"fmt"
	"sync"

	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// Config holds configuration for creating a Manager.
type Config struct {
	Logger *zap.Logger
}

// Listener receives the new state of a single plugin.
type Listener func(state plugin.ActivationState)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Manager layers enable/disable semantics and per-plugin subscriptions on a
// catalog.
//
// Per-plugin listeners are driven by the catalog's own change stream, so
// they also observe transitions made with Catalog.SetActivationState or by
// re-registering an id with a different state. The manager holds a catalog
// subscription only while it has per-plugin listeners.
type Manager struct {
	catalog *catalog.Catalog
	logger  *zap.Logger

	mu        sync.Mutex
	listeners map[string][]listenerEntry
	nextID    uint64
	detach    func()
	closed    bool
}

// NewManager creates a manager bound to cat.
func NewManager(cat *catalog.Catalog, cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		catalog:   cat,
		logger:    cfg.Logger,
		listeners: make(map[string][]listenerEntry),
	}
}

// Activate switches id on. Activating an active plugin is a successful no-op.
// Returns false when id is unknown or ctx is already done.
func (m *Manager) Activate(ctx context.Context, id string) (ok bool) {
	defer m.recoverInto(&ok, "activate", id)

	if err := ctx.Err(); err != nil {
		m.logger.Warn("activation canceled", zap.String("id", id), zap.Error(err))
		return false
	}

	meta, exists := m.catalog.Get(id)
	if !exists {
		m.logger.Warn("cannot activate unknown plugin", zap.String("id", id))
		return false
	}
	if meta.IsActive() {
		return true
	}
	return m.catalog.SetActivationState(id, plugin.StateActive)
}

// Deactivate switches id off. Plugins registered with CanDisable=false are
// refused with a warning no matter who asks.
func (m *Manager) Deactivate(ctx context.Context, id string) (ok bool) {
	defer m.recoverInto(&ok, "deactivate", id)

	if err := ctx.Err(); err != nil {
		m.logger.Warn("deactivation canceled", zap.String("id", id), zap.Error(err))
		return false
	}

	meta, exists := m.catalog.Get(id)
	if !exists {
		m.logger.Warn("cannot deactivate unknown plugin", zap.String("id", id))
		return false
	}
	if !meta.CanDisable {
		m.logger.Warn("plugin cannot be disabled",
			zap.String("id", id), zap.String("family", meta.Family.String()))
		return false
	}
	if !meta.IsActive() {
		return true
	}
	return m.catalog.SetActivationState(id, plugin.StateInactive)
}

// Toggle flips id to the opposite state.
func (m *Manager) Toggle(ctx context.Context, id string) bool {
	meta, exists := m.catalog.Get(id)
	if !exists {
		m.logger.Warn("cannot toggle unknown plugin", zap.String("id", id))
		return false
	}
	if meta.IsActive() {
		return m.Deactivate(ctx, id)
	}
	return m.Activate(ctx, id)
}

// IsActive reports whether id is registered and active.
func (m *Manager) IsActive(id string) bool {
	meta, ok := m.catalog.Get(id)
	return ok && meta.IsActive()
}

// Subscribe registers fn for state changes of id.
func (m *Manager) Subscribe(id string, fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextID++
	entryID := m.nextID
	m.listeners[id] = append(m.listeners[id], listenerEntry{id: entryID, fn: fn})
	if m.detach == nil && !m.closed {
		m.detach = m.catalog.SubscribeChanges(m.onCatalogChange)
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { m.removeListener(id, entryID) })
	}
}

// Close detaches the manager from the catalog's change stream. Listeners
// are no longer notified; activation calls keep working.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.detachLocked()
}

func (m *Manager) detachLocked() {
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

func (m *Manager) onCatalogChange(change catalog.Change) {
	if !change.ActivationChanged() {
		return
	}

	m.mu.Lock()
	entries := append([]listenerEntry(nil), m.listeners[change.ID]...)
	m.mu.Unlock()

	for _, entry := range entries {
		m.invoke(change.ID, entry, change.Current)
	}
}

func (m *Manager) invoke(id string, entry listenerEntry, state plugin.ActivationState) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("activation listener panicked",
				zap.String("id", id),
				zap.String("state", state.String()),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	entry.fn(state)
}

func (m *Manager) removeListener(id string, entryID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.listeners[id]
	for i, e := range entries {
		if e.id == entryID {
			entries = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(m.listeners, id)
		if len(m.listeners) == 0 {
			m.detachLocked()
		}
		return
	}
	m.listeners[id] = entries
}

func (m *Manager) recoverInto(ok *bool, op, id string) {
	if r := recover(); r != nil {
		m.logger.Error("plugin activation failed",
			zap.String("op", op),
			zap.String("id", id),
			zap.String("panic", fmt.Sprint(r)),
		)
		*ok = false
	}
}
