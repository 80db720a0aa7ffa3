package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazycrm/internal/catalog"
	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/idset"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
	"github.com/rebeliceyang/lazycrm/internal/store/memory"
	"github.com/rebeliceyang/lazycrm/internal/store/storetest"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	industry = models.CustomFieldKey(memory.DemoID("field", "industry"))
	source   = models.CustomFieldKey(memory.DemoID("field", "source"))
)

type fixture struct {
	store   *storetest.Faulty
	catalog *models.FieldCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := storetest.Wrap(memory.NewDemo(memory.DemoTenant, testNow))
	c, err := catalog.NewBuilder(s, nil, time.Second, nil).Build(context.Background(), memory.DemoTenant)
	require.NoError(t, err)
	s.Reset()
	return &fixture{store: s, catalog: c}
}

func (f *fixture) plan(t *testing.T, rules ...models.Rule) *filter.Plan {
	t.Helper()
	p, err := filter.Route(f.catalog, rules)
	require.NoError(t, err)
	return p
}

func (f *fixture) resolve(t *testing.T, r *Resolver, rules ...models.Rule) (*idset.Set, error) {
	t.Helper()
	p := f.plan(t, rules...)
	set, _, err := r.Resolve(context.Background(), memory.DemoTenant, p.OwnerFixed, p.OwnerCustom)
	return set, err
}

func rule(t *testing.T, field string, op models.FilterOperator, v models.Value) models.Rule {
	t.Helper()
	r, err := models.NewRule(field, op, v)
	require.NoError(t, err)
	return r
}

func contacts(names ...string) *idset.Set {
	s := idset.Empty()
	for _, n := range names {
		s.Add(memory.DemoID("contact", n))
	}
	return s
}

func TestResolve_NoOwnerRules(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)

	got, err := f.resolve(t, r, rule(t, "status", models.OpEquals, models.Text("open")))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, f.store.Queries())
}

func TestResolve_IndustryAndVipScenario(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)

	got, err := f.resolve(t, r,
		rule(t, industry, models.OpIn, models.Texts("Legal", "Tech")),
		rule(t, "tags", models.OpOverlaps, models.Texts("vip")),
	)
	require.NoError(t, err)
	assert.True(t, contacts("Ana Souza", "Bruno Lima", "Gabriela Costa").Equal(got), "got %v", got.Sorted())
	assert.False(t, got.Has(memory.DemoID("contact", "Carla Mendes")), "Legal without vip must be excluded")
	assert.False(t, got.Has(memory.DemoID("contact", "Removed Customer")), "deleted contacts must be excluded")

	// one base query plus one query per distinct candidate
	assert.Equal(t, 1, f.store.Count(store.TableContacts))
	assert.Equal(t, 2, f.store.Count(store.TableCustomValues))
}

func TestResolve_UnionIsIntersection(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)

	r1 := []models.Rule{
		rule(t, industry, models.OpIn, models.Texts("Legal", "Tech", "Health")),
		rule(t, "client_type", models.OpEquals, models.Text("pj")),
	}
	r2 := []models.Rule{
		rule(t, source, models.OpIn, models.Texts("Inbound", "Referral")),
		rule(t, "tags", models.OpOverlaps, models.Texts("vip", "renewal")),
	}

	a, err := f.resolve(t, r, r1...)
	require.NoError(t, err)
	b, err := f.resolve(t, r, r2...)
	require.NoError(t, err)
	both, err := f.resolve(t, r, append(append([]models.Rule{}, r1...), r2...)...)
	require.NoError(t, err)

	assert.True(t, a.Intersect(b).Equal(both), "expected %v, got %v", a.Intersect(b).Sorted(), both.Sorted())
	assert.False(t, both.IsEmpty())

	// evaluation order does not matter
	reversed, err := f.resolve(t, r, append(append([]models.Rule{}, r2...), r1...)...)
	require.NoError(t, err)
	assert.True(t, both.Equal(reversed))
}

func TestResolve_EmptyCustomRuleShortCircuits(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)

	got, err := f.resolve(t, r,
		rule(t, industry, models.OpIn, models.Texts("Mining")),
		rule(t, source, models.OpEquals, models.Text("Inbound")),
	)
	require.NoError(t, err)
	require.NotNil(t, got, "empty must not collapse to no constraint")
	assert.True(t, got.IsEmpty())
}

func TestResolve_EmptyBaseSkipsCustomQueries(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)

	got, err := f.resolve(t, r,
		rule(t, "tags", models.OpOverlaps, models.Texts("nobody-has-this")),
		rule(t, industry, models.OpIn, models.Texts("Legal")),
	)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 0, f.store.Count(store.TableCustomValues))
}

func TestResolve_CountsIssuedQueries(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)
	p := f.plan(t,
		rule(t, "tags", models.OpOverlaps, models.Texts("vip")),
		rule(t, industry, models.OpIn, models.Texts("Legal", "Tech")),
	)

	_, n, err := r.Resolve(context.Background(), memory.DemoTenant, p.OwnerFixed, p.OwnerCustom)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "one contacts query plus one per candidate")
	assert.Len(t, f.store.Queries(), n)

	_, n, err = r.Resolve(context.Background(), memory.DemoTenant, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestResolve_FailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.store.FailTable(store.TableCustomValues)
	r := New(f.store, Config{}, nil)

	got, err := f.resolve(t, r, rule(t, industry, models.OpIn, models.Texts("Legal", "Tech")))
	require.Error(t, err)
	assert.Nil(t, got)

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.True(t, re.Retryable())
	assert.Equal(t, industry, re.Field)
	assert.ErrorIs(t, err, storetest.ErrInjected)
}

func TestResolve_TimeoutFailsResolution(t *testing.T) {
	f := newFixture(t)
	f.store.DelayOn = func(q store.Query) time.Duration {
		if q.Table == store.TableCustomValues {
			return time.Second
		}
		return 0
	}
	r := New(f.store, Config{QueryTimeout: 20 * time.Millisecond}, nil)

	_, err := f.resolve(t, r, rule(t, source, models.OpEquals, models.Text("Inbound")))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_CandidateBound(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{CandidateWarnThreshold: 1, MaxCandidates: 2}, nil)

	_, err := f.resolve(t, r, rule(t, industry, models.OpIn, models.Texts("Legal", "Tech", "Retail")))
	assert.ErrorIs(t, err, filter.ErrTooManyCandidates)
	assert.True(t, filter.IsValidation(err))
	assert.Empty(t, f.store.Queries(), "validation happens before any query")
}

func TestPlanQueries(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, Config{}, nil)
	p := f.plan(t,
		rule(t, "tags", models.OpOverlaps, models.Texts("vip")),
		rule(t, industry, models.OpIn, models.Texts("Legal", "Tech")),
	)

	queries, err := r.PlanQueries(memory.DemoTenant, p.OwnerFixed, p.OwnerCustom)
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, store.TableContacts, queries[0].Table)
	assert.Len(t, queries[0].Where, 3)
	assert.Equal(t, store.TableCustomValues, queries[2].Table)
}
