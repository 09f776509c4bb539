package engine

import (
	"context"
	"errors"
	"strings"

	"placereview/internal/domain/places"
	"placereview/internal/domain/storage"
	"placereview/internal/keylock"

	"go.uber.org/zap"
)

const (
	DefaultCity    = "Jakarta"
	UnknownAddress = "Unknown location"

	defaultResolveRetries = 3
)

// Fallback carries the attributes used when a review names a place that
// does not exist yet. They are ignored for existing places.
type Fallback struct {
	Category   string
	PriceRange string
	City       string
	Address    string
	Location   []float64
}

type Resolution struct {
	Place   *places.Place
	Created bool
}

// Resolver finds a place by exact name or creates it.
type Resolver struct {
	store       storage.Store
	locks       keylock.Locker
	taxonomy    Taxonomy
	defaultCity string
	retries     int
	logger      *zap.SugaredLogger
}

func placeNameLockKey(name string) string { return "place-name:" + name }

// Resolve returns the place called name, creating it from fb when missing.
// Surrounding whitespace is ignored, case is not. A new place is seeded
// with seedRating and a review count of one so it reads sensibly before
// the first recompute lands.
func (r *Resolver) Resolve(ctx context.Context, name string, fb Fallback, seedRating int) (Resolution, error) {
	name = places.NormalizeName(name)
	if name == "" {
		return Resolution{}, ErrMissingVenueReference
	}

	unlock, err := r.locks.Lock(ctx, placeNameLockKey(name))
	if err != nil {
		return Resolution{}, storeErr("lock place name", err)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		existing, err := r.store.Places().GetByName(ctx, name)
		if err == nil {
			return Resolution{Place: existing}, nil
		}
		if !errors.Is(err, places.ErrNotFound) {
			return Resolution{}, storeErr("find place by name", err)
		}

		place := r.newPlace(name, fb, seedRating)
		err = r.store.Places().Create(ctx, place)
		if err == nil {
			r.logger.Infow("place created from review", "place_id", place.ID, "name", name, "category", place.Category)
			return Resolution{Place: place, Created: true}, nil
		}
		// Another process won the race past our lock; read its row.
		if !errors.Is(err, places.ErrDuplicateName) || attempt >= r.retries {
			return Resolution{}, storeErr("create place", err)
		}
		r.logger.Warnw("place name taken concurrently, re-reading", "name", name, "attempt", attempt+1)
	}
}

func (r *Resolver) newPlace(name string, fb Fallback, seedRating int) *places.Place {
	category := r.taxonomy.NormalizeLenient(fb.Category)

	price := places.PriceRange(strings.TrimSpace(fb.PriceRange))
	if !price.Valid() {
		price = places.PriceModerate
	}

	city := strings.TrimSpace(fb.City)
	if city == "" {
		city = r.defaultCity
	}

	address := strings.TrimSpace(fb.Address)
	if address == "" {
		address = UnknownAddress
	}

	var location []float64
	if len(fb.Location) == 2 {
		location = []float64{fb.Location[0], fb.Location[1]}
	}

	return &places.Place{
		Name:          name,
		Description:   "User-submitted " + strings.ToLower(string(category)) + ".",
		Category:      category,
		PriceRange:    price,
		City:          city,
		Address:       address,
		Images:        []string{r.taxonomy.DefaultImage(category)},
		Location:      location,
		OverallRating: float64(seedRating),
		ReviewCount:   1,
	}
}
