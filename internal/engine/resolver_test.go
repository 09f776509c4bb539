package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"placereview/internal/domain/places"
)

func TestResolveCreatesWithDefaults(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.engine.Resolver.Resolve(context.Background(), "Warung Baru", Fallback{}, 4)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected a new place")
	}
	p := res.Place
	if p.Category != places.CategoryRestaurant {
		t.Fatalf("category = %q, want Restaurant", p.Category)
	}
	if p.PriceRange != places.PriceModerate {
		t.Fatalf("price = %q, want $$", p.PriceRange)
	}
	if p.Address != UnknownAddress || p.City != DefaultCity {
		t.Fatalf("unexpected address/city %q/%q", p.Address, p.City)
	}
	if len(p.Images) != 1 || p.Images[0] != fx.engine.Taxonomy.DefaultImage(places.CategoryRestaurant) {
		t.Fatalf("unexpected images %v", p.Images)
	}
	if p.OverallRating != 4 || p.ReviewCount != 1 {
		t.Fatalf("unexpected seed %.1f/%d", p.OverallRating, p.ReviewCount)
	}
	if p.Description != "User-submitted restaurant." {
		t.Fatalf("description = %q", p.Description)
	}
}

func TestResolveUsesFallback(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.engine.Resolver.Resolve(context.Background(), "Roti Enak", Fallback{
		Category:   "bakery",
		PriceRange: "$",
		City:       "Bandung",
		Address:    "Jl. Braga 1",
		Location:   []float64{107.6, -6.9},
	}, 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p := res.Place
	if p.Category != places.CategoryBakery || p.PriceRange != places.PriceBudget {
		t.Fatalf("unexpected category/price %q/%q", p.Category, p.PriceRange)
	}
	if p.City != "Bandung" || p.Address != "Jl. Braga 1" || len(p.Location) != 2 {
		t.Fatalf("fallback attributes not applied: %+v", p)
	}
}

func TestResolveInvalidPriceDefaults(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.engine.Resolver.Resolve(context.Background(), "Pricey", Fallback{PriceRange: "$$$$$"}, 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Place.PriceRange != places.PriceModerate {
		t.Fatalf("price = %q, want $$", res.Place.PriceRange)
	}
}

func TestResolveIsStable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.engine.Resolver.Resolve(ctx, "Cafe Stable", Fallback{Category: "Cafe"}, 4)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := fx.engine.Resolver.Resolve(ctx, "Cafe Stable", Fallback{Category: "Bakery", City: "Surabaya"}, 1)
		if err != nil {
			t.Fatalf("resolve again: %v", err)
		}
		if again.Created || again.Place.ID != first.Place.ID {
			t.Fatalf("expected the existing place, got %+v", again)
		}
		if again.Place.Category != places.CategoryCafe || again.Place.City != DefaultCity {
			t.Fatalf("existing place was modified: %+v", again.Place)
		}
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, _ := fx.engine.Resolver.Resolve(ctx, "Kopi Kita", Fallback{}, 3)
	b, _ := fx.engine.Resolver.Resolve(ctx, "kopi kita", Fallback{}, 3)
	if a.Place.ID == b.Place.ID {
		t.Fatalf("names differing in case resolved to the same place")
	}
}

func TestResolveTrimsName(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.engine.Resolver.Resolve(ctx, "  Cafe X ", Fallback{Category: "street food"}, 4)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.Place.Name != "Cafe X" {
		t.Fatalf("stored name = %q, want %q", first.Place.Name, "Cafe X")
	}
	if first.Place.Description != "User-submitted street food." {
		t.Fatalf("description = %q", first.Place.Description)
	}

	for _, name := range []string{"Cafe X", "Cafe X ", "\tCafe X"} {
		again, err := fx.engine.Resolver.Resolve(ctx, name, Fallback{}, 1)
		if err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
		if again.Created || again.Place.ID != first.Place.ID {
			t.Fatalf("resolve %q: expected place %d, got %+v", name, first.Place.ID, again)
		}
	}

	other, err := fx.engine.Resolver.Resolve(ctx, " cafe x ", Fallback{}, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !other.Created {
		t.Fatalf("matching must stay case-sensitive")
	}
}

func TestResolveBlankName(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.engine.Resolver.Resolve(context.Background(), "   ", Fallback{}, 3)
	if !errors.Is(err, ErrMissingVenueReference) {
		t.Fatalf("expected ErrMissingVenueReference, got %v", err)
	}
}

func TestResolveEmptyName(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.engine.Resolver.Resolve(context.Background(), "  ", Fallback{}, 3); !errors.Is(err, ErrMissingVenueReference) {
		t.Fatalf("expected ErrMissingVenueReference, got %v", err)
	}
}

// A row inserted by another process after our lookup surfaces as a
// duplicate name; the resolver must re-read it instead of failing.
func TestResolveRetriesOnDuplicate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	existing := &places.Place{Name: "Raced", Category: places.CategoryCafe}
	if err := fx.mem.Places().Create(ctx, existing); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fx.faults.hideNameLookup.Store(1)

	res, err := fx.engine.Resolver.Resolve(ctx, "Raced", Fallback{}, 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Created || res.Place.ID != existing.ID {
		t.Fatalf("expected the raced place, got %+v", res)
	}
}

func TestResolveGivesUpAfterRetries(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.mem.Places().Create(ctx, &places.Place{Name: "Ghost"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fx.faults.hideNameLookup.Store(100)

	_, err := fx.engine.Resolver.Resolve(ctx, "Ghost", Fallback{}, 2)
	if !errors.Is(err, places.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestResolveConcurrentSameName(t *testing.T) {
	fx := newFixture(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int64]bool{}
		created int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := fx.engine.Resolver.Resolve(context.Background(), "Hot Spot", Fallback{}, 5)
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			mu.Lock()
			ids[res.Place.ID] = true
			if res.Created {
				created++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one place created once, got ids=%v created=%d", ids, created)
	}
}
