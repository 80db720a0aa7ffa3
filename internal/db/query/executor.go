package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazycrm/internal/db/connection"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Store implements store.Store on PostgreSQL
type Store struct {
	pool    *connection.Pool
	builder *Builder
	logger  *logrus.Entry
}

// NewStore creates a store over pool for the tables in schema
func NewStore(pool *connection.Pool, schema string, logger *logrus.Entry) *Store {
	return &Store{
		pool:    pool,
		builder: NewBuilder(schema),
		logger:  logging.Component(logger, "pgstore"),
	}
}

// Select implements store.Store. Rows and total count are fetched in
// one batch round-trip.
func (s *Store) Select(ctx context.Context, q store.Query) (*store.Result, error) {
	start := time.Now()

	sel, err := s.builder.Select(q)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	batch.Queue(sel.SQL, sel.Args...)
	if q.CountTotal {
		cnt, err := s.builder.Count(q)
		if err != nil {
			return nil, err
		}
		batch.Queue(cnt.SQL, cnt.Args...)
	}

	br := s.pool.GetPool().SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	result := &store.Result{}
	result.Rows, err = collect(rows)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}

	if q.CountTotal {
		var total int64
		if err := br.QueryRow().Scan(&total); err != nil {
			return nil, fmt.Errorf("count %s: %w", q.Table, err)
		}
		result.Total = int(total)
	}

	s.logger.WithFields(logrus.Fields{
		"table":    q.Table,
		"rows":     len(result.Rows),
		"duration": time.Since(start),
	}).Trace(sel.SQL)
	return result, nil
}

func collect(rows pgx.Rows) ([]store.Row, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var out []store.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(store.Row, len(values))
		for i, fd := range fieldDescs {
			row[fd.Name] = normalize(fd.DataTypeOID, values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalize converts driver values into the plain types store.Row getters
// understand
func normalize(oid uint32, v any) any {
	if v == nil {
		return nil
	}
	if oid == pgtype.JSONBOID || oid == pgtype.JSONOID {
		switch raw := v.(type) {
		case []byte:
			return json.RawMessage(raw)
		case string:
			return json.RawMessage(raw)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return json.RawMessage(data)
	}
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return v
	}
}
