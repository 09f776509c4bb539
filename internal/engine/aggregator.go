package engine

import (
	"context"
	"errors"
	"math"
	"strconv"

	"placereview/internal/domain/places"
	"placereview/internal/domain/storage"
	"placereview/internal/keylock"

	"go.uber.org/zap"
)

type Aggregate struct {
	OverallRating float64 `json:"overall_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Compute returns the count and the mean rounded to one decimal place.
// An empty set yields the zero Aggregate.
func Compute(ratings []int) Aggregate {
	if len(ratings) == 0 {
		return Aggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return Aggregate{
		OverallRating: math.Round(mean*10) / 10,
		ReviewCount:   len(ratings),
	}
}

// Aggregator owns a place's overall_rating and review_count.
type Aggregator struct {
	store  storage.Store
	locks  keylock.Locker
	logger *zap.SugaredLogger
}

func placeLockKey(id int64) string { return "place:" + strconv.FormatInt(id, 10) }

// Recompute rebuilds the aggregate of placeID from its full review set and
// overwrites the stored values. It returns nil without error when the
// place no longer exists; its reviews are orphans.
func (a *Aggregator) Recompute(ctx context.Context, placeID int64) (*Aggregate, error) {
	unlock, err := a.locks.Lock(ctx, placeLockKey(placeID))
	if err != nil {
		return nil, storeErr("lock place", err)
	}
	defer unlock()

	var agg Aggregate
	err = a.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.Places().GetForUpdate(ctx, placeID); err != nil {
			return err
		}
		ratings, err := tx.Reviews().RatingsByPlace(ctx, placeID)
		if err != nil {
			return err
		}
		agg = Compute(ratings)
		return tx.Places().SetAggregate(ctx, placeID, agg.OverallRating, agg.ReviewCount)
	})
	if errors.Is(err, places.ErrNotFound) {
		a.logger.Warnw("skipping aggregate for missing place", "place_id", placeID)
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("recompute aggregate", err)
	}
	return &agg, nil
}
