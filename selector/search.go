package selector

import (
	"strings"

	"github.com/leeforge/plugincatalog/plugin"
)

// SearchField extracts the strings a query is matched against.
type SearchField func(m *plugin.Metadata) []string

var (
	FieldID          SearchField = func(m *plugin.Metadata) []string { return []string{m.ID} }
	FieldName        SearchField = func(m *plugin.Metadata) []string { return []string{m.Name} }
	FieldDescription SearchField = func(m *plugin.Metadata) []string { return []string{m.Description} }
	FieldTags        SearchField = func(m *plugin.Metadata) []string { return m.Tags }
	FieldCategory    SearchField = func(m *plugin.Metadata) []string { return []string{m.Category()} }
	FieldAuthor      SearchField = func(m *plugin.Metadata) []string { return []string{m.Author} }
)

// DefaultSearchFields returns id, name, description and tags.
func DefaultSearchFields() []SearchField {
	return []SearchField{FieldID, FieldName, FieldDescription, FieldTags}
}

// Matches reports whether any field of m contains query, ignoring case.
// An empty query matches everything.
func Matches(m *plugin.Metadata, query string, fields ...SearchField) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range fields {
		for _, v := range field(m) {
			if v != "" && strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
	}
	return false
}

// Search filters entries with Matches.
func Search[E plugin.Extension](entries []Entry[E], query string, fields ...SearchField) []Entry[E] {
	if len(fields) == 0 {
		fields = DefaultSearchFields()
	}
	out := make([]Entry[E], 0, len(entries))
	for _, e := range entries {
		if Matches(e.Metadata, query, fields...) {
			out = append(out, e)
		}
	}
	return out
}
