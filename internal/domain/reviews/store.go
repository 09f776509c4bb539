package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"placereview/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reviewColumns = `id, place_id, author_id, author_name, author_avatar_url, rating,
	comment, visit_date, images, tags, likes, created_at, updated_at`

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*Review, error) {
	var (
		rv        Review
		authorID  pgtype.Int8
		visitDate pgtype.Date
	)
	err := row.Scan(
		&rv.ID,
		&rv.PlaceID,
		&authorID,
		&rv.AuthorName,
		&rv.AuthorAvatarURL,
		&rv.Rating,
		&rv.Comment,
		&visitDate,
		&rv.Images,
		&rv.Tags,
		&rv.Likes,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if authorID.Valid {
		id := authorID.Int64
		rv.AuthorID = &id
	}
	if visitDate.Valid {
		d := visitDate.Time
		rv.VisitDate = &d
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	if rv.Tags == nil {
		rv.Tags = []string{}
	}
	return &rv, nil
}

func dateArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *Repository) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (place_id, author_id, author_name, author_avatar_url, rating,
                             comment, visit_date, images, tags)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, likes, created_at, updated_at
    `
	review.Images = nonNil(review.Images)
	review.Tags = nonNil(review.Tags)

	err := r.db.QueryRow(ctx, query,
		review.PlaceID,
		review.AuthorID,
		review.AuthorName,
		review.AuthorAvatarURL,
		review.Rating,
		review.Comment,
		dateArg(review.VisitDate),
		review.Images,
		review.Tags,
	).Scan(&review.ID, &review.Likes, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, query string, args ...any) (*Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Review, error) {
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*Review, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.AuthorName != nil {
		add("author_name", *patch.AuthorName)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	if patch.Comment != nil {
		add("comment", *patch.Comment)
	}
	if patch.VisitDate != nil {
		add("visit_date", dateArg(patch.VisitDate))
	}
	if patch.Images != nil {
		add("images", patch.Images)
	}
	if patch.Tags != nil {
		add("tags", patch.Tags)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE reviews SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), reviewColumns)
	return r.getOne(ctx, query, args...)
}

func (r *Repository) Delete(ctx context.Context, id int64) (*Review, error) {
	return r.getOne(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING `+reviewColumns, id)
}

// ListByPlace returns the place's reviews, newest first.
func (r *Repository) ListByPlace(ctx context.Context, placeID int64) ([]Review, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE place_id = $1
        ORDER BY created_at DESC, id DESC
    `, placeID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	list := []Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rv)
	}
	return list, rows.Err()
}

// RatingsByPlace returns the rating of every review of the place.
func (r *Repository) RatingsByPlace(ctx context.Context, placeID int64) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT rating FROM reviews WHERE place_id = $1`, placeID)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *Repository) CountByPlace(ctx context.Context, placeID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM reviews WHERE place_id = $1`, placeID).Scan(&total)
	return total, err
}

// Like increments the likes counter and returns the new value.
func (r *Repository) Like(ctx context.Context, id int64) (int, error) {
	var likes int
	err := r.db.QueryRow(ctx, `
        UPDATE reviews SET likes = likes + 1 WHERE id = $1 RETURNING likes
    `, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return likes, nil
}
