package catalog

import (
	"fmt"
	"sync"

	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// ChangeKind identifies which mutation produced a Change.
type ChangeKind int

const (
	ChangeRegistered   ChangeKind = iota // New id registered
	ChangeReplaced                       // Existing id overwritten
	ChangeUnregistered                   // Id removed
	ChangeActivation                     // Activation state changed
	ChangeCleared                        // Catalog emptied
)

// String returns a human-readable kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeRegistered:
		return "registered"
	case ChangeReplaced:
		return "replaced"
	case ChangeUnregistered:
		return "unregistered"
	case ChangeActivation:
		return "activation"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Change describes one completed catalog mutation. ID, Family and the states
// are empty for ChangeCleared. PreviousFamily is set on ChangeReplaced and
// differs from Family when an overwrite moved the id to another family.
type Change struct {
	Kind           ChangeKind
	ID             string
	Family         plugin.Family
	PreviousFamily plugin.Family
	Previous       plugin.ActivationState
	Current        plugin.ActivationState
}

// Touches reports whether the change affected entries of family.
func (ch Change) Touches(family plugin.Family) bool {
	switch {
	case ch.Kind == ChangeCleared:
		return true
	case ch.Family == family:
		return true
	default:
		return ch.PreviousFamily != "" && ch.PreviousFamily == family
	}
}

// ActivationChanged reports whether the change moved id between states.
func (ch Change) ActivationChanged() bool {
	switch ch.Kind {
	case ChangeActivation:
		return true
	case ChangeReplaced:
		return ch.Previous != ch.Current
	default:
		return false
	}
}

// ChangeListener receives every catalog mutation.
type ChangeListener func(Change)

type listenerEntry struct {
	id uint64
	fn ChangeListener
}

// listenerSet keeps listeners in subscription order.
type listenerSet struct {
	mu      sync.Mutex
	entries []listenerEntry
	nextID  uint64
}

func (s *listenerSet) add(fn ChangeListener) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.entries = append(s.entries, listenerEntry{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *listenerSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *listenerSet) snapshot() []listenerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]listenerEntry(nil), s.entries...)
}

func (s *listenerSet) alive(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// Listeners reports how many change listeners are subscribed.
func (c *Catalog) Listeners() int {
	c.listeners.mu.Lock()
	defer c.listeners.mu.Unlock()
	return len(c.listeners.entries)
}

// Subscribe registers fn to run after every mutation and returns a function
// that removes it. Calling the returned function more than once is harmless.
func (c *Catalog) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return c.SubscribeChanges(func(Change) { fn() })
}

// SubscribeChanges is Subscribe with the mutation details passed through.
func (c *Catalog) SubscribeChanges(fn ChangeListener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := c.listeners.add(fn)

	var once sync.Once
	return func() {
		once.Do(func() { c.listeners.remove(id) })
	}
}

// notify runs listeners synchronously, outside the catalog lock, in
// subscription order. The listener list is snapshotted first; a listener
// removed by an earlier one during the same pass is skipped. Panics are
// recovered and logged so one listener cannot starve the rest.
func (c *Catalog) notify(change Change) {
	for _, entry := range c.listeners.snapshot() {
		if !c.listeners.alive(entry.id) {
			continue
		}
		c.invoke(entry, change)
	}
}

func (c *Catalog) invoke(entry listenerEntry, change Change) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("catalog listener panicked",
				zap.Uint64("listener", entry.id),
				zap.String("change", change.Kind.String()),
				zap.String("id", change.ID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	entry.fn(change)
}
