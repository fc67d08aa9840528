// Package registry provides the per-family stores raw plugin items live in
// alongside the catalog.
package registry

import (
	"sync"

	apperrors "github.com/leeforge/plugincatalog/errors"
)

// KeyFunc extracts the id an item is stored under.
type KeyFunc[T any] func(T) string

// Options configures a Store.
type Options struct {
	// RejectDuplicates makes Register fail instead of overwriting.
	RejectDuplicates bool
}

// Store is a goroutine-safe, insertion-ordered map of items by id.
type Store[T any] struct {
	key   KeyFunc[T]
	opts  Options
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// New creates an empty store keyed by key.
func New[T any](key KeyFunc[T], opts Options) *Store[T] {
	return &Store[T]{
		key:   key,
		opts:  opts,
		items: make(map[string]T),
	}
}

// Register stores item. An existing id is overwritten in place unless the
// store rejects duplicates.
func (s *Store[T]) Register(item T) error {
	id := s.key(item)
	if id == "" {
		return apperrors.NewValidation("registry item has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		if s.opts.RejectDuplicates {
			return apperrors.NewConflict("registry item", id)
		}
	} else {
		s.order = append(s.order, id)
	}
	s.items[id] = item
	return nil
}

// Unregister removes id, reporting whether it was present.
func (s *Store[T]) Unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has returns true if an item is registered under id.
func (s *Store[T]) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.items[id]
	return exists
}

// Get returns the item registered under id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// List returns all items in registration order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of stored items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
