package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
	"github.com/rebeliceyang/lazycrm/internal/store/memory"
	"github.com/rebeliceyang/lazycrm/internal/store/storetest"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestBuild_MergesFixedAndCustom(t *testing.T) {
	s := memory.NewDemo(memory.DemoTenant, testNow)
	b := NewBuilder(s, NewStoreDirectory(s), time.Second, nil)

	c, err := b.Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsDegraded() {
		t.Errorf("expected healthy catalog, got %v", c.Degraded())
	}

	industry, ok := c.Lookup(models.CustomFieldKey(memory.DemoID("field", "industry")))
	if !ok {
		t.Fatal("expected Industry custom field")
	}
	if industry.Kind != models.FieldMultiSelect || len(industry.Options) != 4 {
		t.Errorf("unexpected industry field: %+v", industry)
	}
	if _, ok := c.Lookup(models.CustomFieldKey(memory.DemoID("field", "legacy"))); ok {
		t.Error("expected soft-deleted field to be excluded")
	}

	// custom fields follow creation order
	var custom []string
	for _, f := range c.Fields() {
		if f.Target == models.TargetOwnerCustom {
			custom = append(custom, f.Name)
		}
	}
	if len(custom) != 3 || custom[0] != "Industry" || custom[2] != "Notes" {
		t.Errorf("unexpected custom order: %v", custom)
	}
}

func TestBuild_DiscoversOptions(t *testing.T) {
	s := memory.NewDemo(memory.DemoTenant, testNow)
	c, err := NewBuilder(s, NewStoreDirectory(s), time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tags, _ := c.Lookup("tags")
	if tags.OptionLabel("vip") != "vip" || len(tags.Options) != 4 {
		t.Errorf("unexpected tag options: %v", tags.Options)
	}
	hosts, _ := c.Lookup("responsible_hosts")
	if hosts.OptionLabel("host-maria") != "Maria Oliveira" {
		t.Errorf("expected host labeled from profiles, got %v", hosts.Options)
	}
	stages, _ := c.Lookup("consultation_stage")
	if stages.Options[0].Value != ConsultationStages[0] {
		t.Errorf("expected static stages first, got %v", stages.Options)
	}
}

func TestBuild_LabelsKanbanStages(t *testing.T) {
	s := memory.NewDemo(memory.DemoTenant, testNow)
	c, err := NewBuilder(s, NewStoreDirectory(s), time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kanban, _ := c.Lookup(store.ColKanbanStageID)
	if len(kanban.Options) != 6 {
		t.Fatalf("expected 6 discovered stages, got %v", kanban.Options)
	}
	if got := kanban.OptionLabel(memory.DemoID("stage", "proposal")); got != "Proposal sent" {
		t.Errorf("expected stage labeled from kanban_stages, got %q", got)
	}
}

func TestBuild_StageLookupFailureKeepsIDs(t *testing.T) {
	s := storetest.Wrap(memory.NewDemo(memory.DemoTenant, testNow)).FailTable(store.TableKanbanStages)
	c, err := NewBuilder(s, NewStoreDirectory(s), time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := memory.DemoID("stage", "won")
	kanban, _ := c.Lookup(store.ColKanbanStageID)
	if len(kanban.Options) != 6 || kanban.OptionLabel(id) != id {
		t.Errorf("expected unlabeled stage ids, got %v", kanban.Options)
	}
	hosts, _ := c.Lookup("responsible_hosts")
	if hosts.OptionLabel("host-maria") != "Maria Oliveira" {
		t.Errorf("expected hosts still labeled, got %v", hosts.Options)
	}
	if !c.IsDegraded() {
		t.Error("expected degraded catalog")
	}
}

func TestBuild_DegradesOnDiscoveryFailure(t *testing.T) {
	s := storetest.Wrap(memory.NewDemo(memory.DemoTenant, testNow)).FailTable(store.TableContacts)
	c, err := NewBuilder(s, nil, time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsDegraded() {
		t.Error("expected degraded catalog")
	}
	tags, ok := c.Lookup("tags")
	if !ok {
		t.Fatal("expected tags field to be kept")
	}
	if len(tags.Options) != 0 {
		t.Errorf("expected empty options, got %v", tags.Options)
	}
	stages, _ := c.Lookup("consultation_stage")
	if len(stages.Options) != len(ConsultationStages) {
		t.Errorf("expected static stages only, got %d", len(stages.Options))
	}
}

func TestBuild_DegradesOnDefinitionFailure(t *testing.T) {
	s := storetest.Wrap(memory.NewDemo(memory.DemoTenant, testNow)).FailTable(store.TableCustomFields)
	c, err := NewBuilder(s, nil, time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsDegraded() || c.Len() != len(FixedFields()) {
		t.Errorf("expected fixed fields only, got %d", c.Len())
	}
}

type failingDirectory struct{}

func (failingDirectory) DisplayNames(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("profiles unavailable")
}

func TestBuild_OwnerLookupFailureKeepsIDs(t *testing.T) {
	s := memory.NewDemo(memory.DemoTenant, testNow)
	c, err := NewBuilder(s, failingDirectory{}, time.Second, nil).Build(context.Background(), memory.DemoTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hosts, _ := c.Lookup("responsible_hosts")
	if len(hosts.Options) != 3 || hosts.OptionLabel("host-ana") != "host-ana" {
		t.Errorf("expected unlabeled host ids, got %v", hosts.Options)
	}
	if !c.IsDegraded() {
		t.Error("expected degraded catalog")
	}
}

func TestParseOptions(t *testing.T) {
	if got := ParseOptions(json.RawMessage(`["a","b"]`)); len(got) != 2 {
		t.Errorf("expected 2 options, got %v", got)
	}
	got := ParseOptions(json.RawMessage(`[{"value":"x","label":"X"},{"label":"no value"}]`))
	if len(got) != 1 || got[0].Label != "X" {
		t.Errorf("expected 1 labeled option, got %v", got)
	}
	if got := ParseOptions(json.RawMessage(`{"bad":true}`)); got != nil {
		t.Errorf("expected no options, got %v", got)
	}
	if ParseFieldKind("multiselect") != models.FieldMultiSelect || ParseFieldKind("date") != models.FieldText {
		t.Error("unexpected field kind mapping")
	}
}

func TestFixedFields_UniqueIDs(t *testing.T) {
	if _, err := models.NewFieldCatalog(FixedFields()); err != nil {
		t.Fatalf("fixed fields collide: %v", err)
	}
}
