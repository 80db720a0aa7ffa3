package catalog

import (
	"context"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

// OwnerDirectory resolves owner identifiers to display names
type OwnerDirectory interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// StageDirectory resolves kanban stage identifiers to their titles
type StageDirectory interface {
	StageTitles(ctx context.Context, ids []string) (map[string]string, error)
}

// StoreDirectory looks owners up in the profiles table and stages in
// kanban_stages
type StoreDirectory struct {
	store store.Store
}

// NewStoreDirectory creates a directory over profiles
func NewStoreDirectory(s store.Store) *StoreDirectory {
	return &StoreDirectory{store: s}
}

// DisplayNames returns the display name of every known id
func (d *StoreDirectory) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	res, err := d.store.Select(ctx, store.Query{
		Table:   store.TableProfiles,
		Columns: []string{store.ColID, store.ColDisplayName},
		Where:   []store.Predicate{store.In(store.ColID, ids)},
	})
	if err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		if name := row.String(store.ColDisplayName); name != "" {
			names[row.String(store.ColID)] = name
		}
	}
	return names, nil
}

// StageTitles returns the title of every known stage id
func (d *StoreDirectory) StageTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	res, err := d.store.Select(ctx, store.Query{
		Table:   store.TableKanbanStages,
		Columns: []string{store.ColID, store.ColTitle},
		Where:   []store.Predicate{store.In(store.ColID, ids)},
	})
	if err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		if title := row.String(store.ColTitle); title != "" {
			titles[row.String(store.ColID)] = title
		}
	}
	return titles, nil
}
