package app

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazycrm/internal/db/query"
	"github.com/rebeliceyang/lazycrm/internal/engine"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
	"github.com/rebeliceyang/lazycrm/internal/ui/components"
)

// PlanSteps renders the queries state would issue as PostgreSQL
func PlanSteps(eng *engine.Engine, b *query.Builder, state models.FilterState) ([]components.PlanStep, error) {
	queries, err := eng.Explain(state)
	if err != nil {
		return nil, err
	}
	steps := make([]components.PlanStep, 0, len(queries))
	for i, q := range queries {
		stmt, err := b.Select(q)
		if err != nil {
			return nil, fmt.Errorf("render query %d: %w", i+1, err)
		}
		steps = append(steps, components.PlanStep{
			Title: stepTitle(q, i == len(queries)-1),
			SQL:   stmt.SQL,
			Args:  stmt.Args,
		})
	}
	return steps, nil
}

func stepTitle(q store.Query, primary bool) string {
	if primary {
		return "conversations page (owner ids applied as contact_id = ANY)"
	}
	var cols []string
	for _, p := range q.Where {
		if p.Column == store.ColUserID || p.Column == store.ColDeletedAt {
			continue
		}
		cols = append(cols, p.Column)
	}
	if len(cols) == 0 {
		return "owner ids from " + q.Table
	}
	return fmt.Sprintf("owner ids from %s by %s", q.Table, strings.Join(cols, ", "))
}
