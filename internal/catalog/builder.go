// Package catalog discovers the filterable fields of a tenant.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Builder merges fixed fields with a tenant's custom fields and discovered options
type Builder struct {
	store     store.Store
	directory OwnerDirectory
	stages    StageDirectory
	timeout   time.Duration
	logger    *logrus.Entry
}

// NewBuilder creates a catalog builder. A nil directory leaves owner ids
// unlabeled; kanban stages are labeled when the directory is also a
// StageDirectory.
func NewBuilder(s store.Store, directory OwnerDirectory, timeout time.Duration, logger *logrus.Entry) *Builder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	stages, _ := directory.(StageDirectory)
	return &Builder{
		store:     s,
		directory: directory,
		stages:    stages,
		timeout:   timeout,
		logger:    logging.Component(logger, "catalog"),
	}
}

// discovered holds distinct values found on the tenant's contacts
type discovered struct {
	tags   []string
	hosts  []models.Option
	stages []string
	kanban []models.Option
}

// Build assembles the catalog. Discovery failures degrade the affected
// fields to their static options and are recorded on the catalog; only
// an inconsistent field set makes Build fail.
func (b *Builder) Build(ctx context.Context, tenant string) (*models.FieldCatalog, error) {
	var (
		mu       sync.Mutex
		degraded []string
		custom   []models.Field
		found    discovered
	)
	degrade := func(what string, err error) {
		b.logger.WithError(err).WithField("step", what).Warn("catalog discovery failed")
		mu.Lock()
		degraded = append(degraded, fmt.Sprintf("%s: %v", what, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		fields, err := b.customFields(ctx, tenant)
		if err != nil {
			degrade("custom fields", err)
			return nil
		}
		custom = fields
		return nil
	})
	g.Go(func() error {
		d, err := b.discover(ctx, tenant)
		if err != nil {
			degrade("option discovery", err)
			return nil
		}
		hosts, err := b.labelHosts(ctx, d.hostIDs)
		if err != nil {
			degrade("owner lookup", err)
		}
		kanban, err := b.labelStages(ctx, d.kanbanIDs)
		if err != nil {
			degrade("stage lookup", err)
		}
		found = discovered{tags: d.tags, hosts: hosts, stages: d.stages, kanban: kanban}
		return nil
	})
	_ = g.Wait()

	fields := FixedFields()
	for i := range fields {
		switch fields[i].ID {
		case store.ColTags:
			fields[i].Options = mergeOptions(fields[i].Options, options(found.tags...))
		case store.ColResponsibleHosts:
			fields[i].Options = mergeOptions(fields[i].Options, found.hosts)
		case store.ColConsultationStage:
			fields[i].Options = mergeOptions(fields[i].Options, options(found.stages...))
		case store.ColKanbanStageID:
			fields[i].Options = mergeOptions(fields[i].Options, found.kanban)
		}
	}
	fields = append(fields, custom...)

	sort.Strings(degraded)
	catalog, err := models.NewFieldCatalog(fields, degraded...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	b.logger.WithFields(logrus.Fields{
		"fields":   catalog.Len(),
		"custom":   len(custom),
		"degraded": len(degraded),
	}).Info("catalog built")
	return catalog, nil
}

type rawDiscovery struct {
	tags      []string
	hostIDs   []string
	stages    []string
	kanbanIDs []string
}

// discover collects distinct tags, hosts, consultation stages and kanban
// stage ids in one contacts query
func (b *Builder) discover(ctx context.Context, tenant string) (rawDiscovery, error) {
	qctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.store.Select(qctx, store.Query{
		Table:   store.TableContacts,
		Columns: []string{store.ColTags, store.ColResponsibleHosts, store.ColConsultationStage, store.ColKanbanStageID},
		Where: []store.Predicate{
			store.Eq(store.ColUserID, tenant),
			store.IsNull(store.ColDeletedAt),
		},
	})
	if err != nil {
		return rawDiscovery{}, err
	}

	tags, hosts, stages, kanban := newDistinct(), newDistinct(), newDistinct(), newDistinct()
	for _, row := range res.Rows {
		tags.add(row.Strings(store.ColTags)...)
		hosts.add(row.Strings(store.ColResponsibleHosts)...)
		stages.add(row.String(store.ColConsultationStage))
		kanban.add(row.String(store.ColKanbanStageID))
	}
	return rawDiscovery{
		tags:      tags.sorted(),
		hostIDs:   hosts.sorted(),
		stages:    stages.sorted(),
		kanbanIDs: kanban.sorted(),
	}, nil
}

// labelHosts turns owner ids into options. On lookup failure the ids are
// kept as their own labels.
func (b *Builder) labelHosts(ctx context.Context, ids []string) ([]models.Option, error) {
	if b.directory == nil {
		return options(ids...), nil
	}
	return b.label(ctx, ids, b.directory.DisplayNames)
}

// labelStages does the same for kanban stage ids
func (b *Builder) labelStages(ctx context.Context, ids []string) ([]models.Option, error) {
	if b.stages == nil {
		return options(ids...), nil
	}
	return b.label(ctx, ids, b.stages.StageTitles)
}

func (b *Builder) label(ctx context.Context, ids []string, lookup func(context.Context, []string) (map[string]string, error)) ([]models.Option, error) {
	opts := options(ids...)
	if len(ids) == 0 {
		return opts, nil
	}
	qctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	names, err := lookup(qctx, ids)
	if err != nil {
		return opts, err
	}
	for i := range opts {
		if name, ok := names[opts[i].Value]; ok {
			opts[i].Label = name
		}
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return strings.ToLower(opts[i].Label) < strings.ToLower(opts[j].Label)
	})
	return opts, nil
}

// customFields loads the tenant's non-deleted definitions in creation order
func (b *Builder) customFields(ctx context.Context, tenant string) ([]models.Field, error) {
	qctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.store.Select(qctx, store.Query{
		Table: store.TableCustomFields,
		Columns: []string{
			store.ColID, store.ColFieldName, store.ColFieldType,
			store.ColFieldOptions, store.ColCategory, store.ColCreatedAt,
		},
		Where: []store.Predicate{
			store.Eq(store.ColUserID, tenant),
			store.IsNull(store.ColDeletedAt),
		},
		OrderBy: []store.Order{{Column: store.ColCreatedAt}},
	})
	if err != nil {
		return nil, err
	}

	fields := make([]models.Field, 0, len(res.Rows))
	for _, row := range res.Rows {
		def := models.CustomFieldDefinition{
			ID:       row.String(store.ColID),
			Name:     row.String(store.ColFieldName),
			Kind:     ParseFieldKind(row.String(store.ColFieldType)),
			Options:  row.JSON(store.ColFieldOptions),
			Category: row.String(store.ColCategory),
		}
		fields = append(fields, CustomField(def))
	}
	return fields, nil
}

// CustomField converts a definition into its catalog entry
func CustomField(def models.CustomFieldDefinition) models.Field {
	category := def.Category
	if category == "" {
		category = models.CategoryCustom
	}
	return models.Field{
		ID:            models.CustomFieldKey(def.ID),
		Name:          def.Name,
		Kind:          def.Kind,
		Options:       ParseOptions(def.Options),
		Category:      category,
		Target:        models.TargetOwnerCustom,
		CustomFieldID: def.ID,
		MultiValued:   def.Kind == models.FieldMultiSelect,
	}
}

// ParseFieldKind maps a stored field_type to a kind; unknown types are text
func ParseFieldKind(s string) models.FieldKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single_select", "select", "single-select":
		return models.FieldSingleSelect
	case "multi_select", "multiselect", "multi-select":
		return models.FieldMultiSelect
	default:
		return models.FieldText
	}
}

// ParseOptions reads field_options, either a list of strings or a list of
// {value, label} objects. Malformed options yield none.
func ParseOptions(raw json.RawMessage) []models.Option {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err == nil {
		return options(values...)
	}
	var objs []models.Option
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil
	}
	out := objs[:0]
	for _, o := range objs {
		if o.Value == "" {
			continue
		}
		if o.Label == "" {
			o.Label = o.Value
		}
		out = append(out, o)
	}
	return out
}

// mergeOptions keeps static options first and appends new discovered ones
func mergeOptions(static, found []models.Option) []models.Option {
	seen := make(map[string]bool, len(static))
	out := make([]models.Option, 0, len(static)+len(found))
	for _, o := range static {
		seen[o.Value] = true
		out = append(out, o)
	}
	for _, o := range found {
		if !seen[o.Value] {
			seen[o.Value] = true
			out = append(out, o)
		}
	}
	return out
}

type distinct map[string]struct{}

func newDistinct() distinct {
	return make(distinct)
}

func (d distinct) add(values ...string) {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			d[v] = struct{}{}
		}
	}
}

func (d distinct) sorted() []string {
	out := make([]string, 0, len(d))
	for v := range d {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
