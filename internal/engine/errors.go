package engine

import (
	"context"
	"errors"
	"fmt"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/users"
)

var (
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrInvalidCategory       = errors.New("unrecognized category")
	ErrMissingVenueReference = errors.New("either a place id or a place name is required")
	ErrNotFound              = errors.New("not found")
	// ErrAggregationInconsistency marks a write that succeeded while a
	// derived aggregate could not be refreshed. Recomputing is safe to retry.
	ErrAggregationInconsistency = errors.New("review saved but derived aggregates are stale")
	ErrStoreUnavailable         = errors.New("store unavailable")
)

// storeErr classifies a persistence or lock error for callers of the engine.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, places.ErrNotFound),
		errors.Is(err, reviews.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, places.ErrDuplicateName),
		errors.Is(err, users.ErrDuplicateEmail),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}
