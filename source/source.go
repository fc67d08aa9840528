// Package source discovers plugin items outside the process: static lists,
// manifest directories and watched directories.
package source

import (
	"context"

	"github.com/leeforge/plugincatalog/bridge"
	"github.com/leeforge/plugincatalog/plugin"
)

// Discovered is a resolved plugin item ready for registration.
type Discovered struct {
	Path    string
	Family  plugin.Family
	Origin  plugin.Origin
	Plugin  any
	Options bridge.RegisterOptions
}

// Source yields already-resolved plugin items. A Source may return partial
// results together with an error describing the items it skipped.
type Source interface {
	Discover(ctx context.Context) ([]Discovered, error)
}

// Static is a fixed list of items.
type Static []Discovered

func (s Static) Discover(ctx context.Context) ([]Discovered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Discovered(nil), s...), nil
}

// Func adapts a function to Source.
type Func func(ctx context.Context) ([]Discovered, error)

func (f Func) Discover(ctx context.Context) ([]Discovered, error) {
	return f(ctx)
}
