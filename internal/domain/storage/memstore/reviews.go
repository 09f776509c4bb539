package memstore

import (
	"context"
	"sort"

	"placereview/internal/domain/reviews"
)

type reviewStore struct{ s *Store }

func cloneReview(r *reviews.Review) *reviews.Review {
	c := *r
	c.Images = cloneStrings(r.Images)
	c.Tags = cloneStrings(r.Tags)
	if r.AuthorID != nil {
		id := *r.AuthorID
		c.AuthorID = &id
	}
	if r.VisitDate != nil {
		d := *r.VisitDate
		c.VisitDate = &d
	}
	return &c
}

func (rs reviewStore) Create(ctx context.Context, review *reviews.Review) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	rs.s.reviewSeq++
	now := rs.s.now()
	review.ID = rs.s.reviewSeq
	review.Likes = 0
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Images == nil {
		review.Images = []string{}
	}
	if review.Tags == nil {
		review.Tags = []string{}
	}
	rs.s.reviews[review.ID] = cloneReview(review)
	return nil
}

func (rs reviewStore) GetByID(ctx context.Context, id int64) (*reviews.Review, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()

	r, ok := rs.s.reviews[id]
	if !ok {
		return nil, reviews.ErrNotFound
	}
	return cloneReview(r), nil
}

func (rs reviewStore) Update(ctx context.Context, id int64, patch reviews.Patch) (*reviews.Review, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	r, ok := rs.s.reviews[id]
	if !ok {
		return nil, reviews.ErrNotFound
	}
	if patch.Empty() {
		return cloneReview(r), nil
	}
	if patch.AuthorName != nil {
		r.AuthorName = *patch.AuthorName
	}
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	if patch.VisitDate != nil {
		d := *patch.VisitDate
		r.VisitDate = &d
	}
	if patch.Images != nil {
		r.Images = cloneStrings(patch.Images)
	}
	if patch.Tags != nil {
		r.Tags = cloneStrings(patch.Tags)
	}
	r.UpdatedAt = rs.s.now()
	return cloneReview(r), nil
}

func (rs reviewStore) Delete(ctx context.Context, id int64) (*reviews.Review, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	r, ok := rs.s.reviews[id]
	if !ok {
		return nil, reviews.ErrNotFound
	}
	delete(rs.s.reviews, id)
	return r, nil
}

func (rs reviewStore) ListByPlace(ctx context.Context, placeID int64) ([]reviews.Review, error) {
	rs.s.mu.RLock()
	list := []reviews.Review{}
	for _, r := range rs.s.reviews {
		if r.PlaceID == placeID {
			list = append(list, *cloneReview(r))
		}
	}
	rs.s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (rs reviewStore) RatingsByPlace(ctx context.Context, placeID int64) ([]int, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()

	ratings := []int{}
	for _, r := range rs.s.reviews {
		if r.PlaceID == placeID {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings, nil
}

func (rs reviewStore) CountByPlace(ctx context.Context, placeID int64) (int, error) {
	ratings, err := rs.RatingsByPlace(ctx, placeID)
	return len(ratings), err
}

func (rs reviewStore) Like(ctx context.Context, id int64) (int, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	r, ok := rs.s.reviews[id]
	if !ok {
		return 0, reviews.ErrNotFound
	}
	r.Likes++
	return r.Likes, nil
}
