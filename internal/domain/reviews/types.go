package reviews

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("review not found")

// DefaultAvatarURL is used when the author supplies no picture.
const DefaultAvatarURL = "https://res.cloudinary.com/demo/image/upload/v1580125016/samples/people/boy-snow-hoodie.jpg"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID              int64      `json:"id"`
	PlaceID         int64      `json:"place_id"`
	AuthorID        *int64     `json:"author_id,omitempty"` // nil for anonymous reviews
	AuthorName      string     `json:"author_name"`
	AuthorAvatarURL string     `json:"author_avatar_url"`
	Rating          int        `json:"rating"` // 1-5
	Comment         string     `json:"comment"`
	VisitDate       *time.Time `json:"visit_date,omitempty"`
	Images          []string   `json:"images"`
	Tags            []string   `json:"tags"`
	Likes           int        `json:"likes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Patch holds review edits. The place reference cannot be changed.
type Patch struct {
	AuthorName *string
	Rating     *int
	Comment    *string
	VisitDate  *time.Time
	Images     []string
	Tags       []string
}

func (p Patch) Empty() bool {
	return p.AuthorName == nil && p.Rating == nil && p.Comment == nil &&
		p.VisitDate == nil && p.Images == nil && p.Tags == nil
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

type Store interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id int64) (*Review, error)
	Update(ctx context.Context, id int64, patch Patch) (*Review, error)
	// Delete removes the review and returns it as it was.
	Delete(ctx context.Context, id int64) (*Review, error)
	ListByPlace(ctx context.Context, placeID int64) ([]Review, error)
	RatingsByPlace(ctx context.Context, placeID int64) ([]int, error)
	CountByPlace(ctx context.Context, placeID int64) (int, error)
	Like(ctx context.Context, id int64) (int, error)
}
