package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"placereview/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

const uniqueEmailConstraint = "users_email_key"

var QueryTimeoutDuration = time.Second * 5

const userColumns = `id, name, email, password, reviews_count, xp, rank, created_at, updated_at`

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) getOne(ctx context.Context, query string, args ...any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		u    User
		hash []byte
		rank string
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &hash, &u.ReviewsCount, &u.XP, &rank, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Password.SetHash(hash)
	u.Rank = Rank(rank)
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
	  INSERT INTO users (name, email, password, reviews_count, xp, rank)
	  VALUES ($1, $2, $3, $4, $5, $6)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Rank == "" {
		user.Rank = RankNewbie
	}

	err := r.db.QueryRow(ctx, query,
		user.Name, user.Email, user.Password.Hash(), user.ReviewsCount, user.XP, string(user.Rank),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, uniqueEmailConstraint) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetProgress overwrites xp, rank and reviews_count.
func (r *Repository) SetProgress(ctx context.Context, id int64, progress Progress) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET xp = $1, rank = $2, reviews_count = $3, updated_at = now()
		WHERE id = $4
	`, progress.XP, string(progress.Rank), progress.ReviewsCount, id)
	if err != nil {
		return fmt.Errorf("set user progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
