package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rebeliceyang/lazycrm/internal/db/connection"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Requirement is a column the engine queries. An empty UDTName accepts
// any type.
type Requirement struct {
	Column  string
	UDTName string
}

// Requirements lists, per table, the columns the filter engine relies on.
// Array and jsonb columns must have their exact type since the predicates
// on them use && and @>.
func Requirements() map[string][]Requirement {
	plain := func(cols ...string) []Requirement {
		out := make([]Requirement, len(cols))
		for i, c := range cols {
			out[i] = Requirement{Column: c}
		}
		return out
	}
	return map[string][]Requirement{
		store.TableConversations: plain(store.ConversationColumns...),
		store.TableContacts: append(plain(
			store.ColID, store.ColUserID, store.ColName, store.ColEmail, store.ColPhone,
			store.ColClientName, store.ColClientType, store.ColClientSize, store.ColStatus,
			store.ColConsultationStage, store.ColKanbanStageID, store.ColBudget, store.ColSales,
			store.ColLastContact, store.ColDeletedAt,
		),
			Requirement{Column: store.ColTags, UDTName: "_text"},
			Requirement{Column: store.ColResponsibleHosts, UDTName: "_text"},
		),
		store.TableCustomFields: append(plain(
			store.ColID, store.ColUserID, store.ColFieldName, store.ColFieldType,
			store.ColCategory, store.ColCreatedAt, store.ColDeletedAt,
		),
			Requirement{Column: store.ColFieldOptions, UDTName: "jsonb"},
		),
		store.TableCustomValues: {
			{Column: store.ColClientID},
			{Column: store.ColFieldID},
			{Column: store.ColFieldValue, UDTName: "jsonb"},
		},
		store.TableProfiles:     plain(store.ColID, store.ColDisplayName),
		store.TableKanbanStages: plain(store.ColID, store.ColTitle, store.ColOrdering),
	}
}

// ErrSchemaMismatch is returned when the database lacks required columns
var ErrSchemaMismatch = errors.New("database schema does not match")

// CheckSchema verifies every required table and column exists with the
// expected type
func CheckSchema(ctx context.Context, pool *connection.Pool, schema string) error {
	found := make(map[string][]Column)
	for table := range Requirements() {
		cols, err := GetTableColumns(ctx, pool, schema, table)
		if err != nil {
			return err
		}
		found[table] = cols
	}
	if problems := Compare(Requirements(), found); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// Compare lists every requirement missing from found, sorted
func Compare(required map[string][]Requirement, found map[string][]Column) []string {
	var problems []string
	for table, reqs := range required {
		cols := found[table]
		if len(cols) == 0 {
			problems = append(problems, fmt.Sprintf("table %s is missing", table))
			continue
		}
		byName := make(map[string]Column, len(cols))
		for _, c := range cols {
			byName[c.Name] = c
		}
		for _, r := range reqs {
			c, ok := byName[r.Column]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("%s.%s is missing", table, r.Column))
			case r.UDTName != "" && c.UDTName != r.UDTName:
				problems = append(problems, fmt.Sprintf("%s.%s is %s, expected %s", table, r.Column, c.UDTName, r.UDTName))
			}
		}
	}
	sort.Strings(problems)
	return problems
}
