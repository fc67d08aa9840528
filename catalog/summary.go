package catalog

import "github.com/leeforge/plugincatalog/plugin"

// Summary aggregates the catalog by family, origin and activation state.
type Summary struct {
	Total    int                   `json:"total"`
	ByFamily map[plugin.Family]int `json:"byFamily"`
	ByOrigin map[plugin.Origin]int `json:"byOrigin"`
	Active   int                   `json:"active"`
	Inactive int                   `json:"inactive"`
}

// GetSummary computes a Summary in a single pass.
func (c *Catalog) GetSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{
		Total:    len(c.entries),
		ByFamily: make(map[plugin.Family]int),
		ByOrigin: make(map[plugin.Origin]int),
	}
	for _, m := range c.entries {
		s.ByFamily[m.Family]++
		s.ByOrigin[m.Origin]++
		if m.IsActive() {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s
}
