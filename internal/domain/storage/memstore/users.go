package memstore

import (
	"context"
	"strings"

	"placereview/internal/domain/users"
)

type userStore struct{ s *Store }

func cloneUser(u *users.User) *users.User {
	c := *u
	return &c
}

func (us userStore) GetByID(ctx context.Context, id int64) (*users.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return cloneUser(u), nil
}

func (us userStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	id, ok := us.s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, users.ErrNotFound
	}
	return cloneUser(us.s.users[id]), nil
}

func (us userStore) GetForUpdate(ctx context.Context, id int64) (*users.User, error) {
	return us.GetByID(ctx, id)
}

func (us userStore) Create(ctx context.Context, user *users.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, taken := us.s.emails[user.Email]; taken {
		return users.ErrDuplicateEmail
	}
	if user.Rank == "" {
		user.Rank = users.RankNewbie
	}
	us.s.userSeq++
	now := us.s.now()
	user.ID = us.s.userSeq
	user.CreatedAt = now
	user.UpdatedAt = now

	us.s.users[user.ID] = cloneUser(user)
	us.s.emails[user.Email] = user.ID
	return nil
}

func (us userStore) SetProgress(ctx context.Context, id int64, progress users.Progress) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.XP = progress.XP
	u.Rank = progress.Rank
	u.ReviewsCount = progress.ReviewsCount
	u.UpdatedAt = us.s.now()
	return nil
}
