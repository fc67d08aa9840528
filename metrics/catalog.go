package metrics

import (
	"github.com/leeforge/plugincatalog/catalog"
)

// Series maintained by Bind.
const (
	PluginsGauge       = "catalog_plugins"
	ActivePluginsGauge = "catalog_plugins_active"
	ChangesCounter     = "catalog_changes_total"
)

// Bind keeps collector in step with cat: gauges are rebuilt from the catalog
// summary after every change, and each change increments a counter labelled
// by kind. It returns a function that detaches the binding.
func Bind(cat *catalog.Catalog, collector *Collector) (unbind func()) {
	Refresh(cat, collector)
	return cat.SubscribeChanges(func(ch catalog.Change) {
		collector.IncCounter(ChangesCounter, map[string]string{"kind": ch.Kind.String()})
		Refresh(cat, collector)
	})
}

// Refresh rebuilds the catalog gauges.
func Refresh(cat *catalog.Catalog, collector *Collector) {
	counts := make(map[[2]string]int)
	active := 0
	for _, m := range cat.GetAll() {
		counts[[2]string{m.Family.String(), m.Origin.String()}]++
		if m.IsActive() {
			active++
		}
	}

	collector.DeleteSeries(PluginsGauge)
	for k, n := range counts {
		collector.SetGauge(PluginsGauge, float64(n), map[string]string{"family": k[0], "origin": k[1]})
	}
	collector.SetGauge(ActivePluginsGauge, float64(active), nil)
}
