package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placereview/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueNameConstraint = "places_name_key"

const placeColumns = `id, name, description, category, price_range, city, address,
	ST_X(location::geometry), ST_Y(location::geometry), images,
	overall_rating, review_count, created_at, updated_at`

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPlace reads placeColumns followed by any extra destinations.
func scanPlace(row rowScanner, extra ...any) (*Place, error) {
	var (
		p          Place
		category   string
		priceRange string
		lng, lat   pgtype.Float8
	)
	dest := []any{
		&p.ID, &p.Name, &p.Description, &category, &priceRange, &p.City, &p.Address,
		&lng, &lat, &p.Images, &p.OverallRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Category = Category(category)
	p.PriceRange = PriceRange(priceRange)
	if lng.Valid && lat.Valid {
		p.Location = []float64{lng.Float64, lat.Float64}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func locationArgs(loc []float64) (lng, lat *float64) {
	if len(loc) != 2 {
		return nil, nil
	}
	return &loc[0], &loc[1]
}

func (r *Repository) getOne(ctx context.Context, query string, args ...any) (*Place, error) {
	p, err := scanPlace(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Place, error) {
	return r.getOne(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)
}

// GetByName matches the name exactly, case included.
func (r *Repository) GetByName(ctx context.Context, name string) (*Place, error) {
	return r.getOne(ctx, `SELECT `+placeColumns+` FROM places WHERE name = $1`, name)
}

func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*Place, error) {
	return r.getOne(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) Create(ctx context.Context, place *Place) error {
	const query = `
	INSERT INTO places (
	  name, description, category, price_range, city, address,
	  location, images, overall_rating, review_count
	) VALUES (
	  $1, $2, $3, $4, $5, $6,
	  CASE WHEN $7::float8 IS NULL OR $8::float8 IS NULL THEN NULL
	       ELSE ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography END,
	  $9, $10, $11
	)
	RETURNING id, created_at, updated_at
	`
	lng, lat := locationArgs(place.Location)
	images := place.Images
	if images == nil {
		images = []string{}
	}

	err := r.db.QueryRow(ctx, query,
		place.Name,
		place.Description,
		string(place.Category),
		string(place.PriceRange),
		place.City,
		place.Address,
		lng,
		lat,
		images,
		place.OverallRating,
		place.ReviewCount,
	).Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, uniqueNameConstraint) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert place: %w", err)
	}
	place.Images = images
	return nil
}

// Update applies the descriptive edits in patch and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*Place, error) {
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

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", string(*patch.Category))
	}
	if patch.PriceRange != nil {
		add("price_range", string(*patch.PriceRange))
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Location != nil {
		if len(patch.Location) != 2 {
			return nil, fmt.Errorf("invalid location data")
		}
		args = append(args, patch.Location[0], patch.Location[1])
		sets = append(sets, fmt.Sprintf("location = ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography", len(args)-1, len(args)))
	}
	if patch.Images != nil {
		add("images", patch.Images)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE places SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), placeColumns)

	p, err := r.getOne(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err, uniqueNameConstraint) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return p, nil
}

// Delete removes the place only. Reviews pointing at it are left in place.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of places and the total number of matches.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Place, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.PriceRange != nil {
		args = append(args, string(*filter.PriceRange))
		where = append(where, fmt.Sprintf("price_range = $%d", len(args)))
	}

	query := `SELECT ` + placeColumns + `, count(*) OVER() FROM places`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.SortByRating {
		query += " ORDER BY overall_rating DESC, id ASC"
	} else {
		query += " ORDER BY id ASC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var (
		list  = []Place{}
		total int
	)
	for rows.Next() {
		p, err := scanPlace(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Near returns places within q.MaxDistance meters, closest first.
func (r *Repository) Near(ctx context.Context, q NearQuery) ([]Place, error) {
	query := `
	SELECT ` + placeColumns + `
	FROM places
	WHERE location IS NOT NULL
	  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
	LIMIT $4
	`
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, query, q.Longitude, q.Latitude, q.MaxDistance, limit)
	if err != nil {
		return nil, fmt.Errorf("near places: %w", err)
	}
	defer rows.Close()

	list := []Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// SetAggregate overwrites the derived rating fields unconditionally.
func (r *Repository) SetAggregate(ctx context.Context, id int64, overallRating float64, reviewCount int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE places
		SET overall_rating = $1, review_count = $2, updated_at = now()
		WHERE id = $3
	`, overallRating, reviewCount, id)
	if err != nil {
		return fmt.Errorf("set place aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AddImage(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE places SET images = array_append(images, $1), updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) RemoveImage(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE places SET images = array_remove(images, $1), updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
