package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

func newTestStore() *Store {
	s := New()
	s.Insert("contacts",
		store.Row{"id": "a", "user_id": "t1", "tags": []string{"vip", "renewal"}, "budget": 100.0, "deleted_at": nil},
		store.Row{"id": "b", "user_id": "t1", "tags": []string{"newsletter"}, "budget": 50.0, "deleted_at": nil},
		store.Row{"id": "c", "user_id": "t1", "tags": []string{"vip"}, "budget": 10.0, "deleted_at": time.Now()},
		store.Row{"id": "d", "user_id": "t2", "tags": []string{"vip"}, "budget": 70.0},
	)
	s.Insert("client_custom_values",
		store.Row{"client_id": "a", "field_id": "f", "field_value": json.RawMessage(`["Legal","Tech"]`)},
		store.Row{"client_id": "b", "field_id": "f", "field_value": json.RawMessage(`["Retail"]`)},
		store.Row{"client_id": "a", "field_id": "s", "field_value": json.RawMessage(`"Inbound"`)},
	)
	return s
}

func ids(res *store.Result) []string {
	out := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = r.String("id")
	}
	return out
}

func TestSelect_ScopedOverlap(t *testing.T) {
	s := newTestStore()
	res, err := s.Select(context.Background(), store.Query{
		Table: "contacts",
		Where: []store.Predicate{
			store.Eq("user_id", "t1"),
			store.IsNull("deleted_at"),
			store.Overlaps("tags", []string{"vip"}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ids(res)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestSelect_EmptyInMatchesNothing(t *testing.T) {
	s := newTestStore()
	res, err := s.Select(context.Background(), store.Query{
		Table: "contacts",
		Where: []store.Predicate{store.In("id", []string{})},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("expected no rows, got %v", ids(res))
	}
}

func TestSelect_JSONPredicates(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	res, err := s.Select(ctx, store.Query{
		Table: "client_custom_values",
		Where: []store.Predicate{
			store.Eq("field_id", "f"),
			store.Contains("field_value", json.RawMessage(`["Tech"]`)),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].String("client_id") != "a" {
		t.Errorf("expected client a, got %v", res.Rows)
	}

	res, err = s.Select(ctx, store.Query{
		Table: "client_custom_values",
		Where: []store.Predicate{
			store.Eq("field_id", "s"),
			store.Eq("field_value", json.RawMessage(`"Inbound"`)),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(res.Rows))
	}
}

func TestSelect_RangeOrderAndPaging(t *testing.T) {
	s := newTestStore()
	res, err := s.Select(context.Background(), store.Query{
		Table:      "contacts",
		Where:      []store.Predicate{{Column: "budget", Op: store.OpGte, Value: 50}},
		OrderBy:    []store.Order{{Column: "budget", Descending: true}},
		Offset:     1,
		Limit:      1,
		CountTotal: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	got := ids(res)
	if len(got) != 1 || got[0] != "d" {
		t.Errorf("expected [d], got %v", got)
	}
}

func TestSelect_UnknownTable(t *testing.T) {
	s := New()
	if _, err := s.Select(context.Background(), store.Query{Table: "nope"}); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSelect_CancelledContext(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Select(ctx, store.Query{Table: "contacts"}); err == nil {
		t.Error("expected context error")
	}
}

func TestSeed_DemoData(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewDemo(DemoTenant, now)

	res, err := s.Select(context.Background(), store.Query{
		Table:      "conversations",
		Where:      []store.Predicate{store.Eq("user_id", DemoTenant)},
		OrderBy:    []store.Order{{Column: "last_message_time", Descending: true}},
		CountTotal: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != len(demoConversations) {
		t.Errorf("expected %d conversations, got %d", len(demoConversations), res.Total)
	}
	last := res.Rows[len(res.Rows)-1]
	if last.Time("last_message_time") != nil {
		t.Error("expected conversation without messages to sort last")
	}
}
