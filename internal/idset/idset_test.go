package idset

import "testing"

func TestIntersect(t *testing.T) {
	a := New("1", "2", "3")
	b := New("2", "3", "4")

	got := a.Intersect(b).Sorted()
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("expected [2 3], got %v", got)
	}
	if a.Len() != 3 {
		t.Error("expected operands to be unchanged")
	}
}

func TestIntersect_NilIsUnconstrained(t *testing.T) {
	var none *Set
	a := New("1")
	if !none.Intersect(a).Equal(a) {
		t.Error("expected nil ∩ a = a")
	}
	if !a.Intersect(none).Equal(a) {
		t.Error("expected a ∩ nil = a")
	}
	if none.Intersect(none) != nil {
		t.Error("expected nil ∩ nil = nil")
	}
}

func TestIntersect_Empty(t *testing.T) {
	got := New("1", "2").Intersect(Empty())
	if got == nil || !got.IsEmpty() {
		t.Error("expected explicit empty set")
	}
}

func TestUnion(t *testing.T) {
	got := New("1").Union(New("2", "1")).Sorted()
	if len(got) != 2 {
		t.Errorf("expected 2 ids, got %v", got)
	}
	var none *Set
	if u := none.Union(nil); u == nil || !u.IsEmpty() {
		t.Error("expected union of nothing to be an explicit empty set")
	}
}

func TestEqual(t *testing.T) {
	var none *Set
	if none.Equal(Empty()) {
		t.Error("expected nil and empty to differ")
	}
	if !New("a", "b").Equal(New("b", "a")) {
		t.Error("expected order not to matter")
	}
}
