package filter

import "github.com/rebeliceyang/lazycrm/internal/models"

// ClearCategory drops the simple rules whose field belongs to category.
// Rules on fields missing from the catalog are kept so routing still
// reports them.
func ClearCategory(state *models.FilterState, catalog *models.FieldCatalog, category string) int {
	kept := state.Rules[:0:0]
	removed := 0
	for _, r := range state.Rules {
		if f, ok := catalog.Lookup(r.Field); ok && f.Category == category {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed > 0 {
		state.Rules = kept
		state.Page.Offset = 0
	}
	return removed
}

// AdvancedHooks are the callbacks the advanced rule editor uses to supply
// or drop its rule group, independently of the simple per-field rules.
type AdvancedHooks struct {
	Apply func(models.RuleGroup)
	Clear func()
}

// ApplyGroup calls the Apply hook if set
func (h AdvancedHooks) ApplyGroup(g models.RuleGroup) {
	if h.Apply != nil {
		h.Apply(g)
	}
}

// ClearGroup calls the Clear hook if set
func (h AdvancedHooks) ClearGroup() {
	if h.Clear != nil {
		h.Clear()
	}
}
