// Package bridge mirrors plugin registration into the per-family registries
// and the catalog, building catalog metadata from raw plugin items.
package bridge

import (
	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
)

// Registry is the minimum a per-family registry must offer.
type Registry[T any] interface {
	Register(item T) error
}

// Unregisterer is implemented by registries that support removal.
type Unregisterer interface {
	Unregister(id string) bool
}

// Lookup is implemented by registries that can answer point queries.
type Lookup[T any] interface {
	Has(id string) bool
	Get(id string) (T, bool)
}

// Lister is implemented by registries that can enumerate their items.
type Lister[T any] interface {
	List() []T
}

// Builder derives family-specific metadata from a raw item. Builders fill
// identity, extension, features and capabilities; origin and activation
// fields are applied afterwards from RegisterOptions and Defaults.
type Builder[T plugin.Item] func(item T) *plugin.Metadata

// Patch edits metadata after it has been built.
type Patch func(m *plugin.Metadata)

// RegisterOptions overrides the family defaults for one registration.
type RegisterOptions struct {
	Origin          plugin.Origin
	ActivationState plugin.ActivationState
	CanDisable      *bool
	Extra           Patch
}

// Defaults holds the origin and disable policy a family applies when the
// caller does not choose one.
type Defaults struct {
	Origin     plugin.Origin
	CanDisable bool
}

// BuiltinOptions fixes origin builtin and canDisable false.
func BuiltinOptions() RegisterOptions {
	locked := false
	return RegisterOptions{Origin: plugin.OriginBuiltin, CanDisable: &locked}
}

// Family describes how one plugin family is registered.
type Family[T plugin.Item] struct {
	Family   plugin.Family
	Registry Registry[T]
	Build    Builder[T]
	Defaults Defaults
}

// Metadata builds the catalog entry for item.
func (f *Family[T]) Metadata(item T, opts RegisterOptions) *plugin.Metadata {
	m := f.Build(item)
	if m == nil {
		m = &plugin.Metadata{ID: item.ItemID()}
	}
	m.Family = f.Family
	m.Plugin = item

	m.Origin = f.Defaults.Origin
	if opts.Origin != "" {
		m.Origin = opts.Origin
	}
	if !m.Origin.Valid() {
		m.Origin = plugin.OriginBuiltin
	}

	m.ActivationState = plugin.StateActive
	if opts.ActivationState.Valid() {
		m.ActivationState = opts.ActivationState
	}

	m.CanDisable = f.Defaults.CanDisable
	if opts.CanDisable != nil {
		m.CanDisable = *opts.CanDisable
	}

	if opts.Extra != nil {
		opts.Extra(m)
	}
	return m
}

// Register stores item in the family registry and then in the catalog.
// A registry failure is returned unchanged and the catalog is left untouched.
func Register[T plugin.Item](cat *catalog.Catalog, fam *Family[T], item T, opts RegisterOptions) error {
	if fam.Registry != nil {
		if err := fam.Registry.Register(item); err != nil {
			return err
		}
	}
	cat.Register(fam.Metadata(item, opts))
	return nil
}

// RegisterBuiltin registers item as a builtin that cannot be disabled.
func RegisterBuiltin[T plugin.Item](cat *catalog.Catalog, fam *Family[T], item T) error {
	return Register(cat, fam, item, BuiltinOptions())
}

// Unregister removes id from the registry, when it supports removal, and
// from the catalog. A catalog entry belonging to another family is kept. It
// reports whether either store held the id.
func Unregister[T plugin.Item](cat *catalog.Catalog, fam *Family[T], id string) bool {
	removed := false
	if u, ok := fam.Registry.(Unregisterer); ok {
		removed = u.Unregister(id)
	}
	if cat.UnregisterFamily(id, fam.Family) {
		removed = true
	}
	return removed
}

// Syncer mirrors an existing registry into a catalog.
type Syncer interface {
	Sync(cat *catalog.Catalog) int
}

// Sync registers every registry item missing from cat as a locked builtin.
// Registries that cannot enumerate their items sync nothing.
func (f *Family[T]) Sync(cat *catalog.Catalog) int {
	lister, ok := f.Registry.(Lister[T])
	if !ok {
		return 0
	}

	added := 0
	for _, item := range lister.List() {
		if cat.Has(item.ItemID()) {
			continue
		}
		cat.Register(f.Metadata(item, BuiltinOptions()))
		added++
	}
	return added
}

// SyncCatalogFromRegistries runs every syncer and returns how many entries
// were added.
func SyncCatalogFromRegistries(cat *catalog.Catalog, syncers ...Syncer) int {
	total := 0
	for _, s := range syncers {
		total += s.Sync(cat)
	}
	return total
}
