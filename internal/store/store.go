// Package store describes the record-query capability the filter engine
// consumes: per-table predicate queries with ordering and pagination, but
// no joins and no boolean trees.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Op is a storage predicate operator
type Op string

const (
	OpEq       Op = "eq"
	OpIn       Op = "in"
	OpOverlaps Op = "overlaps"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	// OpContains is JSON containment on a jsonb column
	OpContains Op = "contains"
	OpIsNull   Op = "is_null"
)

// Predicate is one column condition. For OpIn and OpOverlaps the value is a
// slice; an empty slice matches nothing. For JSON columns the value is a
// json.RawMessage.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality predicate
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Op: OpEq, Value: value}
}

// In builds a membership predicate
func In(column string, values any) Predicate {
	return Predicate{Column: column, Op: OpIn, Value: values}
}

// Overlaps builds an array overlap predicate
func Overlaps(column string, values []string) Predicate {
	return Predicate{Column: column, Op: OpOverlaps, Value: values}
}

// Contains builds a JSON containment predicate
func Contains(column string, doc json.RawMessage) Predicate {
	return Predicate{Column: column, Op: OpContains, Value: doc}
}

// IsNull builds a null check predicate
func IsNull(column string) Predicate {
	return Predicate{Column: column, Op: OpIsNull}
}

func (p Predicate) String() string {
	switch p.Op {
	case OpIsNull:
		return p.Column + " IS NULL"
	case OpContains:
		return fmt.Sprintf("%s @> %s", p.Column, p.Value)
	case OpEq:
		if raw, ok := p.Value.(json.RawMessage); ok {
			return fmt.Sprintf("%s = %s", p.Column, raw)
		}
	}
	return fmt.Sprintf("%s %s %v", p.Column, p.Op, p.Value)
}

// Order sorts a query by one column
type Order struct {
	Column     string
	Descending bool
}

// Query is a single-table select
type Query struct {
	Table   string
	Columns []string
	Where   []Predicate
	OrderBy []Order
	Offset  int
	// Limit of zero means no limit
	Limit int
	// CountTotal asks for the number of matching rows ignoring offset and limit
	CountTotal bool
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Table)
	for i, p := range q.Where {
		if i == 0 {
			b.WriteString(" where ")
		} else {
			b.WriteString(" and ")
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// Row is one selected record keyed by column name
type Row map[string]any

// String returns a text column, empty when missing or null
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case nil:
		return ""
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Int returns an integer column
func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float returns a numeric column
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Time returns a timestamp column, nil when null
func (r Row) Time(col string) *time.Time {
	switch v := r[col].(type) {
	case time.Time:
		t := v
		return &t
	case *time.Time:
		return v
	default:
		return nil
	}
}

// Strings returns a text array column
func (r Row) Strings(col string) []string {
	switch v := r[col].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// JSON returns a jsonb column as raw bytes
func (r Row) JSON(col string) json.RawMessage {
	switch v := r[col].(type) {
	case json.RawMessage:
		return v
	case []byte:
		return json.RawMessage(v)
	case string:
		return json.RawMessage(v)
	case nil:
		return nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return b
	}
}

// Result holds the selected rows and, when requested, the total count
type Result struct {
	Rows  []Row
	Total int
}

// Store runs single-table queries
type Store interface {
	Select(ctx context.Context, q Query) (*Result, error)
}
