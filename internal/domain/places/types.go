package places

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("place not found")
	ErrDuplicateName = errors.New("a place with that name already exists")
)

// NormalizeName is applied to every name before it is stored or looked
// up. Matching stays case-sensitive.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

type Category string

const (
	CategoryRestaurant Category = "Restaurant"
	CategoryCafe       Category = "Cafe"
	CategoryStreetFood Category = "Street Food"
	CategoryBakery     Category = "Bakery"
	CategoryOther      Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryCafe, CategoryStreetFood, CategoryBakery, CategoryOther:
		return true
	}
	return false
}

type PriceRange string

const (
	PriceBudget    PriceRange = "$"
	PriceModerate  PriceRange = "$$"
	PriceExpensive PriceRange = "$$$"
	PriceLuxury    PriceRange = "$$$$"
)

func (p PriceRange) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PriceExpensive, PriceLuxury:
		return true
	}
	return false
}

// Place is a reviewable venue. OverallRating and ReviewCount are derived
// from the place's reviews and are only written through SetAggregate.
type Place struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	PriceRange    PriceRange `json:"price_range"`
	City          string     `json:"city"`
	Address       string     `json:"address"`
	Location      []float64  `json:"location,omitempty"` // [longitude, latitude]
	Images        []string   `json:"images"`
	OverallRating float64    `json:"overall_rating"`
	ReviewCount   int        `json:"review_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Patch holds descriptive field edits. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	Category    *Category
	PriceRange  *PriceRange
	City        *string
	Address     *string
	Location    []float64
	Images      []string
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil &&
		p.PriceRange == nil && p.City == nil && p.Address == nil &&
		p.Location == nil && p.Images == nil
}

type Filter struct {
	Category     *Category
	PriceRange   *PriceRange
	SortByRating bool
	Limit        int
	Offset       int
}

type NearQuery struct {
	Longitude   float64
	Latitude    float64
	MaxDistance float64 // meters
	Limit       int
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*Place, error)
	GetByName(ctx context.Context, name string) (*Place, error)
	// GetForUpdate reads the place and holds a row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Place, error)
	Create(ctx context.Context, place *Place) error
	Update(ctx context.Context, id int64, patch Patch) (*Place, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter Filter) ([]Place, int, error)
	Near(ctx context.Context, q NearQuery) ([]Place, error)
	SetAggregate(ctx context.Context, id int64, overallRating float64, reviewCount int) error
	AddImage(ctx context.Context, id int64, url string) error
	RemoveImage(ctx context.Context, id int64, url string) error
}
