package engine

import (
	"context"
	"strconv"

	"placereview/internal/domain/storage"
	"placereview/internal/domain/users"
	"placereview/internal/keylock"

	"go.uber.org/zap"
)

const DefaultXPPerReview = 10

// RankFor maps an xp total to its rank tier.
func RankFor(xp int) users.Rank {
	switch {
	case xp < 100:
		return users.RankNewbie
	case xp < 500:
		return users.RankIntermediate
	case xp < 1000:
		return users.RankExpert
	default:
		return users.RankMaster
	}
}

// Progression owns a user's xp, rank and reviews_count.
type Progression struct {
	store       storage.Store
	locks       keylock.Locker
	xpPerReview int
	logger      *zap.SugaredLogger
}

func userLockKey(id int64) string { return "user:" + strconv.FormatInt(id, 10) }

// AwardReview credits userID with one authored review.
func (p *Progression) AwardReview(ctx context.Context, userID int64) (users.Progress, error) {
	unlock, err := p.locks.Lock(ctx, userLockKey(userID))
	if err != nil {
		return users.Progress{}, storeErr("lock user", err)
	}
	defer unlock()

	var prev, next users.Progress
	err = p.store.WithTx(ctx, func(tx storage.Store) error {
		user, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		prev = user.Progress()
		xp := user.XP + p.xpPerReview
		next = users.Progress{
			XP:           xp,
			Rank:         RankFor(xp),
			ReviewsCount: user.ReviewsCount + 1,
		}
		return tx.Users().SetProgress(ctx, userID, next)
	})
	if err != nil {
		return users.Progress{}, storeErr("award review", err)
	}
	if next.Rank != prev.Rank {
		p.logger.Infow("user rank changed", "user_id", userID, "from", prev.Rank, "to", next.Rank, "xp", next.XP)
	}
	return next, nil
}
