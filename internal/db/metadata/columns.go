// Package metadata inspects the CRM tables through information_schema.
package metadata

import (
	"context"
	"fmt"

	"github.com/rebeliceyang/lazycrm/internal/db/connection"
)

// Column describes one table column
type Column struct {
	Name     string
	DataType string
	// UDTName is the underlying type, e.g. _text for text[] or jsonb
	UDTName string
	IsArray bool
}

// IsJSONB reports whether the column holds jsonb
func (c Column) IsJSONB() bool {
	return c.UDTName == "jsonb"
}

// GetTableColumns retrieves column metadata for a table
func GetTableColumns(ctx context.Context, pool *connection.Pool, schema, table string) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			udt_name,
			CASE WHEN data_type = 'ARRAY' THEN true ELSE false END as is_array
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]Column, 0, len(rows))
	for _, row := range rows {
		col := Column{
			Name:     toString(row["column_name"]),
			DataType: toString(row["data_type"]),
			UDTName:  toString(row["udt_name"]),
		}
		if isArray, ok := row["is_array"].(bool); ok {
			col.IsArray = isArray
		}
		columns = append(columns, col)
	}

	return columns, nil
}

// toString safely converts a driver value to string
func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
