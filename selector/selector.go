package selector

import (
	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// Entry pairs a metadata copy with its typed family extension.
type Entry[E plugin.Extension] struct {
	*plugin.Metadata
	Ext E
}

// Option configures a Selector.
type Option func(*options)

type options struct {
	fields []SearchField
	logger *zap.Logger
}

// WithSearchFields replaces the fields Search matches against.
func WithSearchFields(fields ...SearchField) Option {
	return func(o *options) { o.fields = fields }
}

// WithLogger sets the logger used to report failing visibility predicates.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Selector is a read-only, family-scoped view over a catalog.
// Every method derives its result from the catalog on each call.
type Selector[E plugin.Extension] struct {
	catalog *catalog.Catalog
	family  plugin.Family
	fields  []SearchField
	logger  *zap.Logger
}

// New creates a selector for family.
func New[E plugin.Extension](cat *catalog.Catalog, family plugin.Family, opts ...Option) *Selector[E] {
	o := options{
		fields: DefaultSearchFields(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Selector[E]{
		catalog: cat,
		family:  family,
		fields:  o.fields,
		logger:  o.logger,
	}
}

// Family returns the family this selector is scoped to.
func (s *Selector[E]) Family() plugin.Family {
	return s.family
}

// All returns every entry of the family in catalog order.
func (s *Selector[E]) All() []Entry[E] {
	metas := s.catalog.GetByFamily(s.family)
	out := make([]Entry[E], 0, len(metas))
	for _, m := range metas {
		out = append(out, toEntry[E](m))
	}
	return out
}

// Get returns id only when it is registered under this selector's family.
func (s *Selector[E]) Get(id string) (Entry[E], bool) {
	m, ok := s.catalog.Get(id)
	if !ok || m.Family != s.family {
		return Entry[E]{}, false
	}
	return toEntry[E](m), true
}

// Has reports whether id is registered under this family.
func (s *Selector[E]) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Active returns the family's active entries.
func (s *Selector[E]) Active() []Entry[E] {
	return s.Filter(func(e Entry[E]) bool { return e.IsActive() })
}

// Filter returns the entries keep accepts.
func (s *Selector[E]) Filter(keep func(Entry[E]) bool) []Entry[E] {
	all := s.All()
	out := all[:0]
	for _, e := range all {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory returns entries whose family category equals category exactly.
func (s *Selector[E]) ByCategory(category string) []Entry[E] {
	return s.Filter(func(e Entry[E]) bool { return e.Category() == category })
}

// Search matches query case-insensitively against the configured fields.
func (s *Selector[E]) Search(query string) []Entry[E] {
	return Search(s.All(), query, s.fields...)
}

// Visible returns the entries whose plugin predicate accepts ctx.
func (s *Selector[E]) Visible(ctx plugin.VisibilityContext) []Entry[E] {
	return filterVisible(s.All(), ctx, s.logger)
}

// Subscribe calls fn after catalog changes that may affect this family.
func (s *Selector[E]) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.catalog.SubscribeChanges(func(ch catalog.Change) {
		if ch.Touches(s.family) {
			fn()
		}
	})
}

func toEntry[E plugin.Extension](m *plugin.Metadata) Entry[E] {
	ext, _ := plugin.ExtensionAs[E](m)
	return Entry[E]{Metadata: m, Ext: ext}
}
