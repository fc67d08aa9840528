package selector

import (
	"fmt"

	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// IsVisible runs the plugin's own predicate. Plugins without one are
// visible; a panicking predicate counts as not visible.
func IsVisible(m *plugin.Metadata, ctx plugin.VisibilityContext, logger *zap.Logger) (visible bool) {
	pred, ok := m.Plugin.(plugin.VisibilityPredicate)
	if !ok {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("visibility predicate panicked",
				zap.String("id", m.ID),
				zap.String("family", m.Family.String()),
				zap.String("panic", fmt.Sprint(r)),
			)
			visible = false
		}
	}()
	return pred.WhenVisible(ctx)
}

func filterVisible[E plugin.Extension](entries []Entry[E], ctx plugin.VisibilityContext, logger *zap.Logger) []Entry[E] {
	out := make([]Entry[E], 0, len(entries))
	for _, e := range entries {
		if IsVisible(e.Metadata, ctx, logger) {
			out = append(out, e)
		}
	}
	return out
}
