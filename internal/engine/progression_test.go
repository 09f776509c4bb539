package engine

import (
	"context"
	"errors"
	"testing"

	"placereview/internal/domain/users"
)

func TestRankFor(t *testing.T) {
	tests := []struct {
		xp   int
		want users.Rank
	}{
		{0, users.RankNewbie},
		{99, users.RankNewbie},
		{100, users.RankIntermediate},
		{499, users.RankIntermediate},
		{500, users.RankExpert},
		{999, users.RankExpert},
		{1000, users.RankMaster},
		{50000, users.RankMaster},
	}
	for _, tt := range tests {
		if got := RankFor(tt.xp); got != tt.want {
			t.Fatalf("RankFor(%d) = %q, want %q", tt.xp, got, tt.want)
		}
		// same input, same answer, whatever came before
		RankFor(tt.xp + 1000)
		if got := RankFor(tt.xp); got != tt.want {
			t.Fatalf("RankFor(%d) changed to %q", tt.xp, got)
		}
	}
}

func TestAwardReviewCrossesRank(t *testing.T) {
	fx := newFixture(t)
	u := fx.newUser(t, "u95@example.com", 95)

	progress, err := fx.engine.Progression.AwardReview(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if progress.XP != 105 || progress.Rank != users.RankIntermediate || progress.ReviewsCount != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	stored, _ := fx.mem.Users().GetByID(context.Background(), u.ID)
	if stored.Progress() != progress {
		t.Fatalf("stored progress %+v, returned %+v", stored.Progress(), progress)
	}
}

func TestAwardReviewCustomXP(t *testing.T) {
	fx := newFixture(t)
	e := New(fx.mem, nil, nil, Config{XPPerReview: 250})
	u := fx.newUser(t, "big@example.com", 0)

	if _, err := e.Progression.AwardReview(context.Background(), u.ID); err != nil {
		t.Fatalf("award: %v", err)
	}
	progress, err := e.Progression.AwardReview(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if progress.XP != 500 || progress.Rank != users.RankExpert || progress.ReviewsCount != 2 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestAwardReviewUnknownUser(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.engine.Progression.AwardReview(context.Background(), 77)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
