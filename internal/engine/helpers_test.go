package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/storage"
	"placereview/internal/domain/storage/memstore"
	"placereview/internal/domain/users"
	"placereview/internal/keylock"

	"go.uber.org/zap/zaptest"
)

var errInjected = errors.New("injected store failure")

// faults toggles failures in faultyStore. Counters fail the next n calls.
type faults struct {
	setAggregate   atomic.Bool
	reviewCreate   atomic.Bool
	setProgress    atomic.Bool
	hideNameLookup atomic.Int32
	afterCreate    func()
}

type faultyStore struct {
	storage.Store
	f *faults
}

func (s faultyStore) Places() places.Store   { return faultyPlaces{s.Store.Places(), s.f} }
func (s faultyStore) Reviews() reviews.Store { return faultyReviews{s.Store.Reviews(), s.f} }
func (s faultyStore) Users() users.Store     { return faultyUsers{s.Store.Users(), s.f} }

func (s faultyStore) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Store) error {
		return fn(faultyStore{tx, s.f})
	})
}

type faultyPlaces struct {
	places.Store
	f *faults
}

func (p faultyPlaces) GetByName(ctx context.Context, name string) (*places.Place, error) {
	if p.f.hideNameLookup.Load() > 0 {
		p.f.hideNameLookup.Add(-1)
		return nil, places.ErrNotFound
	}
	return p.Store.GetByName(ctx, name)
}

func (p faultyPlaces) SetAggregate(ctx context.Context, id int64, rating float64, count int) error {
	if p.f.setAggregate.Load() {
		return errInjected
	}
	return p.Store.SetAggregate(ctx, id, rating, count)
}

type faultyReviews struct {
	reviews.Store
	f *faults
}

func (r faultyReviews) Create(ctx context.Context, review *reviews.Review) error {
	if r.f.reviewCreate.Load() {
		return errInjected
	}
	if err := r.Store.Create(ctx, review); err != nil {
		return err
	}
	if r.f.afterCreate != nil {
		r.f.afterCreate()
	}
	return nil
}

type faultyUsers struct {
	users.Store
	f *faults
}

func (u faultyUsers) SetProgress(ctx context.Context, id int64, p users.Progress) error {
	if u.f.setProgress.Load() {
		return errInjected
	}
	return u.Store.SetProgress(ctx, id, p)
}

type fixture struct {
	engine *Engine
	mem    *memstore.Store
	faults *faults
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New()
	f := &faults{}
	e := New(faultyStore{mem, f}, keylock.NewMemory(), zaptest.NewLogger(t).Sugar(), Config{})
	return &fixture{engine: e, mem: mem, faults: f}
}

func (fx *fixture) create(t *testing.T, in CreateInput) CreateResult {
	t.Helper()
	res, err := fx.engine.Coordinator.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if res.Inconsistency != nil {
		t.Fatalf("unexpected inconsistency: %v", res.Inconsistency)
	}
	return res
}

func (fx *fixture) place(t *testing.T, id int64) *places.Place {
	t.Helper()
	p, err := fx.mem.Places().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get place %d: %v", id, err)
	}
	return p
}

func (fx *fixture) newUser(t *testing.T, email string, xp int) *users.User {
	t.Helper()
	ctx := context.Background()
	u := &users.User{Name: "Reviewer", Email: email}
	if err := fx.mem.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if xp > 0 {
		p := users.Progress{XP: xp, Rank: RankFor(xp)}
		if err := fx.mem.Users().SetProgress(ctx, u.ID, p); err != nil {
			t.Fatalf("seed progress: %v", err)
		}
	}
	return u
}

// assertAggregate checks the stored aggregate against the live review set.
func (fx *fixture) assertAggregate(t *testing.T, placeID int64) {
	t.Helper()
	ratings, err := fx.mem.Reviews().RatingsByPlace(context.Background(), placeID)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	want := Compute(ratings)
	p := fx.place(t, placeID)
	if p.ReviewCount != want.ReviewCount || p.OverallRating != want.OverallRating {
		t.Fatalf("place %d aggregate = %.1f/%d, want %.1f/%d",
			placeID, p.OverallRating, p.ReviewCount, want.OverallRating, want.ReviewCount)
	}
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
