// Package query renders store queries as PostgreSQL and runs them on a
// pgx pool.
package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

// DefaultSchema holds the CRM tables
const DefaultSchema = "public"

// uuidColumns are typed uuid in the CRM schema. Values that do not parse
// as uuids are compared on the text form instead of failing the cast.
var uuidColumns = map[string]bool{
	store.ColID:            true,
	store.ColUserID:        true,
	store.ColContactID:     true,
	store.ColClientID:      true,
	store.ColFieldID:       true,
	store.ColKanbanStageID: true,
}

// Statement is a rendered query with its positional arguments
type Statement struct {
	SQL  string
	Args []any
}

// Builder renders store queries for one schema
type Builder struct {
	schema string
}

// NewBuilder creates a builder; an empty schema means public
func NewBuilder(schema string) *Builder {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Builder{schema: schema}
}

// Select renders the row query
func (b *Builder) Select(q store.Query) (Statement, error) {
	var sb strings.Builder
	args := &argList{}

	sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		sb.WriteString("*")
	} else {
		for i, c := range q.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ident(c))
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table(q.Table))

	if err := writeWhere(&sb, q.Where, args); err != nil {
		return Statement{}, err
	}

	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ident(o.Column))
			if o.Descending {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
			sb.WriteString(" NULLS LAST")
		}
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + args.add(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(" OFFSET " + args.add(q.Offset))
	}

	return Statement{SQL: sb.String(), Args: args.values}, nil
}

// Count renders the total count of q, ignoring ordering and paging
func (b *Builder) Count(q store.Query) (Statement, error) {
	var sb strings.Builder
	args := &argList{}
	sb.WriteString("SELECT count(*) FROM ")
	sb.WriteString(b.table(q.Table))
	if err := writeWhere(&sb, q.Where, args); err != nil {
		return Statement{}, err
	}
	return Statement{SQL: sb.String(), Args: args.values}, nil
}

func (b *Builder) table(name string) string {
	return pgx.Identifier{b.schema, name}.Sanitize()
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

type argList struct {
	values []any
}

func (a *argList) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

func writeWhere(sb *strings.Builder, preds []store.Predicate, args *argList) error {
	for i, p := range preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		cond, err := predicate(p, args)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Column, err)
		}
		sb.WriteString(cond)
	}
	return nil
}

func predicate(p store.Predicate, args *argList) (string, error) {
	col := ident(p.Column)
	switch p.Op {
	case store.OpIsNull:
		return col + " IS NULL", nil

	case store.OpEq:
		if raw, ok := p.Value.(json.RawMessage); ok {
			return col + " = " + args.add(string(raw)) + "::jsonb", nil
		}
		if s, ok := p.Value.(string); ok && uuidColumns[p.Column] {
			if id, err := uuid.Parse(s); err == nil {
				return col + " = " + args.add(id), nil
			}
			return col + "::text = " + args.add(s), nil
		}
		return col + " = " + args.add(p.Value), nil

	case store.OpIn:
		n, err := listLen(p.Value)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "FALSE", nil
		}
		if ss, ok := p.Value.([]string); ok && uuidColumns[p.Column] {
			if ids, ok := parseUUIDs(ss); ok {
				return col + " = ANY(" + args.add(ids) + ")", nil
			}
			return col + "::text = ANY(" + args.add(ss) + ")", nil
		}
		return col + " = ANY(" + args.add(p.Value) + ")", nil

	case store.OpOverlaps:
		n, err := listLen(p.Value)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "FALSE", nil
		}
		return col + " && " + args.add(p.Value), nil

	case store.OpContains:
		raw, ok := p.Value.(json.RawMessage)
		if !ok {
			return "", fmt.Errorf("containment needs a JSON document, got %T", p.Value)
		}
		return col + " @> " + args.add(string(raw)) + "::jsonb", nil

	case store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		return col + " " + rangeSymbol(p.Op) + " " + args.add(p.Value), nil

	default:
		return "", fmt.Errorf("unsupported operator %q", p.Op)
	}
}

func rangeSymbol(op store.Op) string {
	switch op {
	case store.OpGt:
		return ">"
	case store.OpGte:
		return ">="
	case store.OpLt:
		return "<"
	default:
		return "<="
	}
}

func listLen(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return 0, fmt.Errorf("expected a list, got %T", v)
	}
	return rv.Len(), nil
}

func parseUUIDs(ss []string) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, len(ss))
	for i, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		out[i] = id
	}
	return out, true
}
