// Package memory is an in-process store.Store used by demo mode and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/jsonb"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Store holds tables of rows in memory
type Store struct {
	mu     sync.RWMutex
	tables map[string][]store.Row
}

// New creates an empty store
func New() *Store {
	return &Store{tables: make(map[string][]store.Row)}
}

// Insert appends rows to a table
func (s *Store) Insert(table string, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], copyRow(r))
	}
}

// Update sets column values on every row matching where; it returns the count
func (s *Store) Update(table string, set store.Row, where ...store.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.tables[table] {
		ok, err := matchAll(r, where)
		if err != nil {
			return n, err
		}
		if !ok {
			continue
		}
		for k, v := range set {
			r[k] = v
		}
		n++
	}
	return n, nil
}

// Select implements store.Store
func (s *Store) Select(ctx context.Context, q store.Query) (*store.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows, ok := s.tables[q.Table]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("unknown table %q", q.Table)
	}
	var matched []store.Row
	for _, r := range rows {
		ok, err := matchAll(r, q.Where)
		if err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("%s: %w", q.Table, err)
		}
		if ok {
			matched = append(matched, project(r, q.Columns))
		}
	}
	s.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		sortRows(matched, q.OrderBy)
	}

	result := &store.Result{}
	if q.CountTotal {
		result.Total = len(matched)
	}

	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	result.Rows = matched[start:end]
	return result, nil
}

func matchAll(r store.Row, preds []store.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := match(r, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(r store.Row, p store.Predicate) (bool, error) {
	got, present := r[p.Column]
	switch p.Op {
	case store.OpIsNull:
		return !present || isNil(got), nil
	case store.OpEq:
		if raw, ok := p.Value.(json.RawMessage); ok {
			return jsonb.Equal(got, raw), nil
		}
		c, ok := compare(got, p.Value)
		return ok && c == 0, nil
	case store.OpIn:
		items, err := listOf(p.Value)
		if err != nil {
			return false, err
		}
		for _, want := range items {
			if c, ok := compare(got, want); ok && c == 0 {
				return true, nil
			}
		}
		return false, nil
	case store.OpOverlaps:
		items, err := listOf(p.Value)
		if err != nil {
			return false, err
		}
		have, _ := listOf(got)
		for _, want := range items {
			for _, h := range have {
				if c, ok := compare(h, want); ok && c == 0 {
					return true, nil
				}
			}
		}
		return false, nil
	case store.OpContains:
		if isNil(got) {
			return false, nil
		}
		return jsonb.Contains(got, p.Value), nil
	case store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		c, ok := compare(got, p.Value)
		if !ok {
			return false, nil
		}
		switch p.Op {
		case store.OpGt:
			return c > 0, nil
		case store.OpGte:
			return c >= 0, nil
		case store.OpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported operator %q", p.Op)
	}
}

// listOf turns any slice into []any
func listOf(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		return rv.IsNil()
	}
	return false
}

// compare orders two scalars of compatible types; ok is false when they
// cannot be compared, which makes every comparison fail like SQL NULL.
func compare(a, b any) (int, bool) {
	if isNil(a) || isNil(b) {
		return 0, false
	}
	if t, ok := a.(*time.Time); ok {
		a = *t
	}
	if t, ok := b.(*time.Time); ok {
		b = *t
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// sortRows orders rows; nulls sort last in both directions
func sortRows(rows []store.Row, orders []store.Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			a, b := rows[i][o.Column], rows[j][o.Column]
			an, bn := isNil(a), isNil(b)
			switch {
			case an && bn:
				continue
			case an:
				return false
			case bn:
				return true
			}
			c, ok := compare(a, b)
			if !ok || c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func project(r store.Row, cols []string) store.Row {
	if len(cols) == 0 {
		return copyRow(r)
	}
	out := make(store.Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

func copyRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}
