package resolver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// baseQuery selects the tenant's live contacts matching every fixed rule
func (r *Resolver) baseQuery(tenant string, fixed []filter.Bound) (store.Query, error) {
	preds, err := filter.Predicates(fixed)
	if err != nil {
		return store.Query{}, err
	}
	where := append([]store.Predicate{
		store.Eq(store.ColUserID, tenant),
		store.IsNull(store.ColDeletedAt),
	}, preds...)
	return store.Query{
		Table:   store.TableContacts,
		Columns: []string{store.ColID},
		Where:   where,
	}, nil
}

// customQueries builds, per rule, one client_custom_values query per
// distinct candidate value
func (r *Resolver) customQueries(custom []filter.Bound) ([][]store.Query, error) {
	out := make([][]store.Query, len(custom))
	for i, b := range custom {
		preds, err := filter.CandidatePredicates(b)
		if err != nil {
			return nil, &filter.ValidationError{RuleID: b.Rule.ID, Field: b.Rule.Field, Err: err}
		}
		if err := r.checkCandidates(b, len(preds)); err != nil {
			return nil, err
		}
		queries := make([]store.Query, len(preds))
		for j, p := range preds {
			queries[j] = store.Query{
				Table:   store.TableCustomValues,
				Columns: []string{store.ColClientID},
				Where: []store.Predicate{
					store.Eq(store.ColFieldID, b.Field.CustomFieldID),
					p,
				},
			}
		}
		out[i] = queries
	}
	return out, nil
}

func (r *Resolver) checkCandidates(b filter.Bound, n int) error {
	if n > r.cfg.MaxCandidates {
		return &filter.ValidationError{
			RuleID: b.Rule.ID,
			Field:  b.Rule.Field,
			Err:    fmt.Errorf("%w: %d values, at most %d", filter.ErrTooManyCandidates, n, r.cfg.MaxCandidates),
		}
	}
	if n > r.cfg.CandidateWarnThreshold {
		r.logger.WithFields(logrus.Fields{
			"field":      b.Rule.Field,
			"candidates": n,
		}).Warn("rule issues one query per candidate value")
	}
	return nil
}

// PlanQueries returns the queries Resolve would issue, base query first.
// Custom attribute values are scoped to live definitions by the catalog,
// which only lists non-deleted fields.
func (r *Resolver) PlanQueries(tenant string, fixed, custom []filter.Bound) ([]store.Query, error) {
	if len(fixed) == 0 && len(custom) == 0 {
		return nil, nil
	}
	base, err := r.baseQuery(tenant, fixed)
	if err != nil {
		return nil, err
	}
	perRule, err := r.customQueries(custom)
	if err != nil {
		return nil, err
	}
	out := []store.Query{base}
	for _, qs := range perRule {
		out = append(out, qs...)
	}
	return out, nil
}
