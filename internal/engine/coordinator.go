package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/storage"
	"placereview/internal/domain/users"

	"go.uber.org/zap"
)

// Stage is the last step a review request completed.
type Stage string

const (
	StageReceived           Stage = "received"
	StageVenueResolved      Stage = "venue_resolved"
	StagePersisted          Stage = "persisted"
	StageAggregated         Stage = "aggregated"
	StageProgressionApplied Stage = "progression_applied"
	StageComplete           Stage = "complete"
	StageFailed             Stage = "failed"
)

const (
	AnonymousAuthor          = "Anonymous"
	DefaultCompletionTimeout = 10 * time.Second
)

type CreateInput struct {
	PlaceID   *int64
	PlaceName string

	AuthorID        *int64
	AuthorName      string
	AuthorAvatarURL string

	Rating    int
	Comment   string
	VisitDate *time.Time
	Images    []string
	Tags      []string

	// Used only when PlaceName names a place that does not exist yet.
	Category   string
	Address    string
	PriceRange string
	City       string
	Location   []float64
}

// CreateResult describes a created review. A non-nil Inconsistency means
// the review was saved but a derived aggregate could not be refreshed.
type CreateResult struct {
	Review        *reviews.Review
	Place         *places.Place // set only when the place was created
	Aggregate     *Aggregate
	Progress      *users.Progress
	Stage         Stage
	Inconsistency error
}

type UpdateResult struct {
	Review        *reviews.Review
	Aggregate     *Aggregate
	Stage         Stage
	Inconsistency error
}

type DeleteResult struct {
	Review        *reviews.Review
	Aggregate     *Aggregate // nil when the place itself is gone
	Stage         Stage
	Inconsistency error
}

// Coordinator runs review create, update and delete against the resolver,
// aggregator and progression updater.
type Coordinator struct {
	store             storage.Store
	resolver          *Resolver
	aggregator        *Aggregator
	progression       *Progression
	completionTimeout time.Duration
	logger            *zap.SugaredLogger
}

// detach keeps post-persistence work running after the caller goes away.
func (c *Coordinator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.completionTimeout)
}

func inconsistency(what string, id int64, err error) error {
	return fmt.Errorf("%w: %s %d: %w", ErrAggregationInconsistency, what, id, err)
}

func (c *Coordinator) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	res := CreateResult{Stage: StageReceived}

	if !reviews.ValidRating(in.Rating) {
		res.Stage = StageFailed
		return res, fmt.Errorf("%w: got %d", ErrInvalidRating, in.Rating)
	}
	if in.PlaceID == nil && strings.TrimSpace(in.PlaceName) == "" {
		res.Stage = StageFailed
		return res, ErrMissingVenueReference
	}

	var (
		placeID int64
		created *places.Place
	)
	if in.PlaceID != nil {
		place, err := c.store.Places().GetByID(ctx, *in.PlaceID)
		if err != nil {
			res.Stage = StageFailed
			return res, storeErr("find place", err)
		}
		placeID = place.ID
	} else {
		resolved, err := c.resolver.Resolve(ctx, in.PlaceName, Fallback{
			Category:   in.Category,
			PriceRange: in.PriceRange,
			City:       in.City,
			Address:    in.Address,
			Location:   in.Location,
		}, in.Rating)
		if err != nil {
			res.Stage = StageFailed
			return res, err
		}
		placeID = resolved.Place.ID
		if resolved.Created {
			created = resolved.Place
		}
	}
	res.Stage = StageVenueResolved

	review := &reviews.Review{
		PlaceID:         placeID,
		AuthorID:        in.AuthorID,
		AuthorName:      strings.TrimSpace(in.AuthorName),
		AuthorAvatarURL: strings.TrimSpace(in.AuthorAvatarURL),
		Rating:          in.Rating,
		Comment:         in.Comment,
		VisitDate:       in.VisitDate,
		Images:          in.Images,
		Tags:            in.Tags,
	}
	if review.AuthorName == "" {
		review.AuthorName = AnonymousAuthor
	}
	if review.AuthorAvatarURL == "" {
		review.AuthorAvatarURL = reviews.DefaultAvatarURL
	}

	// The caller may abort up to this point and leave no review behind.
	err := ctx.Err()
	if err == nil {
		err = c.store.Reviews().Create(ctx, review)
	}
	if err != nil {
		if created != nil {
			c.healSeededPlace(ctx, created.ID)
		}
		res.Stage = StageFailed
		return res, storeErr("create review", err)
	}
	res.Review = review
	res.Stage = StagePersisted

	ctx, cancel := c.detach(ctx)
	defer cancel()

	agg, err := c.aggregator.Recompute(ctx, placeID)
	if err != nil {
		res.Inconsistency = inconsistency("place", placeID, err)
		c.logger.Errorw("aggregate refresh failed after review create",
			"review_id", review.ID, "place_id", placeID, "stage", res.Stage, "error", err)
	} else {
		res.Aggregate = agg
		res.Stage = StageAggregated
	}
	if created != nil {
		if agg != nil {
			created.OverallRating = agg.OverallRating
			created.ReviewCount = agg.ReviewCount
		}
		res.Place = created
	}

	if in.AuthorID != nil {
		progress, err := c.progression.AwardReview(ctx, *in.AuthorID)
		if err != nil {
			res.Inconsistency = errors.Join(res.Inconsistency, inconsistency("user", *in.AuthorID, err))
			c.logger.Errorw("progression failed after review create",
				"review_id", review.ID, "user_id", *in.AuthorID, "stage", res.Stage, "error", err)
		} else {
			res.Progress = &progress
			if res.Stage == StageAggregated {
				res.Stage = StageProgressionApplied
			}
		}
	} else if res.Stage == StageAggregated {
		res.Stage = StageProgressionApplied
	}

	if res.Inconsistency == nil {
		res.Stage = StageComplete
	}
	c.logger.Infow("review created", "review_id", review.ID, "place_id", placeID, "stage", res.Stage)
	return res, nil
}

// healSeededPlace resets the seeded aggregate of a place whose first review
// failed to save.
func (c *Coordinator) healSeededPlace(ctx context.Context, placeID int64) {
	ctx, cancel := c.detach(ctx)
	defer cancel()

	if _, err := c.aggregator.Recompute(ctx, placeID); err != nil {
		c.logger.Errorw("could not heal seeded place aggregate", "place_id", placeID, "error", err)
	}
}

// Update applies patch to a review. The review's place never changes.
func (c *Coordinator) Update(ctx context.Context, reviewID int64, patch reviews.Patch) (UpdateResult, error) {
	res := UpdateResult{Stage: StageReceived}

	if patch.Rating != nil && !reviews.ValidRating(*patch.Rating) {
		res.Stage = StageFailed
		return res, fmt.Errorf("%w: got %d", ErrInvalidRating, *patch.Rating)
	}

	review, err := c.store.Reviews().Update(ctx, reviewID, patch)
	if err != nil {
		res.Stage = StageFailed
		return res, storeErr("update review", err)
	}
	res.Review = review
	res.Stage = StagePersisted

	ctx, cancel := c.detach(ctx)
	defer cancel()

	agg, err := c.aggregator.Recompute(ctx, review.PlaceID)
	if err != nil {
		res.Inconsistency = inconsistency("place", review.PlaceID, err)
		c.logger.Errorw("aggregate refresh failed after review update",
			"review_id", reviewID, "place_id", review.PlaceID, "error", err)
		return res, nil
	}
	res.Aggregate = agg
	res.Stage = StageComplete
	return res, nil
}

// Delete removes a review and refreshes its former place. XP already
// granted for the review is kept.
func (c *Coordinator) Delete(ctx context.Context, reviewID int64) (DeleteResult, error) {
	res := DeleteResult{Stage: StageReceived}

	review, err := c.store.Reviews().Delete(ctx, reviewID)
	if err != nil {
		res.Stage = StageFailed
		return res, storeErr("delete review", err)
	}
	res.Review = review
	res.Stage = StagePersisted

	ctx, cancel := c.detach(ctx)
	defer cancel()

	agg, err := c.aggregator.Recompute(ctx, review.PlaceID)
	if err != nil {
		res.Inconsistency = inconsistency("place", review.PlaceID, err)
		c.logger.Errorw("aggregate refresh failed after review delete",
			"review_id", reviewID, "place_id", review.PlaceID, "error", err)
		return res, nil
	}
	res.Aggregate = agg
	res.Stage = StageComplete
	c.logger.Infow("review deleted", "review_id", reviewID, "place_id", review.PlaceID)
	return res, nil
}
