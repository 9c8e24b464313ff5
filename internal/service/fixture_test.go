package service

import (
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/storetest"
)

var jst = time.FixedZone("JST", 9*60*60)

type fixture struct {
	clock *storetest.Clock
	store *storetest.Store
	cache *storetest.Cache
	mail  *storetest.Mail
	opts  Options

	registry    *Registry
	reconciler  *Reconciler
	roster      *Roster
	aggregation *Aggregation
}

// newFixture 默认把时间定在 2026-03-18 10:00 (JST)，处于提交期间内
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock: storetest.NewClock(time.Date(2026, 3, 18, 10, 0, 0, 0, jst)),
		cache: storetest.NewCache(),
		mail:  &storetest.Mail{},
	}
	f.store = storetest.NewStore(f.clock.Now)
	f.opts = Options{
		Location:       jst,
		ClosureWeekday: time.Monday,
		WindowStart:    15,
		WindowEnd:      20,
		Now:            f.clock.Now,
	}
	f.build()

	return f
}

func (f *fixture) build() {
	f.registry = NewRegistry(f.store, f.store, f.store, f.cache, f.mail, f.opts)
	f.reconciler = NewReconciler(f.store, f.store, f.opts)
	f.roster = NewRoster(f.store, f.store, f.store, f.store, scheduler.Greedy{}, f.opts)
	f.aggregation = NewAggregation(f.store, f.store, f.store)
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
