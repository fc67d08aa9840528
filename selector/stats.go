package selector

import (
	"sort"

	"github.com/leeforge/plugincatalog/plugin"
)

// Reader is the read side of a catalog used by the diagnostics.
type Reader interface {
	GetAll() []*plugin.Metadata
}

// FeatureUsage counts the plugins providing and consuming one feature.
type FeatureUsage struct {
	Feature   string `json:"feature,omitempty"`
	Providers int    `json:"providers"`
	Consumers int    `json:"consumers"`
	Total     int    `json:"total"`
}

// FeatureUsageStats aggregates provides/consumes declarations by feature.
// A plugin listing a feature twice on the same side counts once.
func FeatureUsageStats(r Reader) map[string]FeatureUsage {
	stats := make(map[string]FeatureUsage)
	for _, m := range r.GetAll() {
		for _, f := range dedupe(m.ProvidesFeatures) {
			u := stats[f]
			u.Providers++
			u.Total++
			stats[f] = u
		}
		for _, f := range dedupe(m.ConsumesFeatures) {
			u := stats[f]
			u.Consumers++
			u.Total++
			stats[f] = u
		}
	}
	return stats
}

// SortedFeatureUsage returns the usage stats ordered by total descending,
// then by feature name.
func SortedFeatureUsage(r Reader) []FeatureUsage {
	stats := FeatureUsageStats(r)
	out := make([]FeatureUsage, 0, len(stats))
	for name, u := range stats {
		u.Feature = name
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// FeatureEdges lists the plugin ids on each side of a feature.
type FeatureEdges struct {
	Providers []string `json:"providers"`
	Consumers []string `json:"consumers"`
}

// FeatureGraph maps every feature to the ids providing and consuming it,
// in catalog order.
func FeatureGraph(r Reader) map[string]FeatureEdges {
	graph := make(map[string]FeatureEdges)
	for _, m := range r.GetAll() {
		for _, f := range dedupe(m.ProvidesFeatures) {
			e := graph[f]
			e.Providers = append(e.Providers, m.ID)
			graph[f] = e
		}
		for _, f := range dedupe(m.ConsumesFeatures) {
			e := graph[f]
			e.Consumers = append(e.Consumers, m.ID)
			graph[f] = e
		}
	}
	return graph
}

// UnprovidedFeatures returns consumed features no plugin provides, sorted.
// Features are informational, so this is a diagnostic and not an error.
func UnprovidedFeatures(r Reader) []string {
	var out []string
	for name, u := range FeatureUsageStats(r) {
		if u.Providers == 0 && u.Consumers > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
