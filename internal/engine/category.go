package engine

import (
	"fmt"
	"strings"

	"placereview/internal/domain/places"
)

// Taxonomy is the closed set of place categories and their placeholder
// imagery. The zero value is not usable; build one with DefaultTaxonomy.
type Taxonomy struct {
	labels   []places.Category
	images   map[places.Category]string
	omitted  places.Category // used when no category is given
	fallback places.Category // used for unknown input on the lenient path
}

func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		labels: []places.Category{
			places.CategoryRestaurant,
			places.CategoryCafe,
			places.CategoryStreetFood,
			places.CategoryBakery,
			places.CategoryOther,
		},
		images: map[places.Category]string{
			places.CategoryRestaurant: "https://images.unsplash.com/photo-1517248135467-4c7edcad34c4",
			places.CategoryCafe:       "https://images.unsplash.com/photo-1554118811-1e0d58224f24",
			places.CategoryStreetFood: "https://images.unsplash.com/photo-1504674900247-0877df9cc836",
			places.CategoryBakery:     "https://images.unsplash.com/photo-1517433367423-c7e5b0f35086",
			places.CategoryOther:      "https://images.unsplash.com/photo-1466978913421-dad2ebd01d17",
		},
		omitted:  places.CategoryRestaurant,
		fallback: places.CategoryOther,
	}
}

// Categories returns the canonical labels in display order.
func (t Taxonomy) Categories() []places.Category {
	out := make([]places.Category, len(t.labels))
	copy(out, t.labels)
	return out
}

func (t Taxonomy) match(raw string) (places.Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, label := range t.labels {
		if strings.EqualFold(raw, string(label)) {
			return label, true
		}
	}
	return "", false
}

// Normalize maps raw to its canonical label, ignoring case and surrounding
// whitespace. Unknown input is rejected.
func (t Taxonomy) Normalize(raw string) (places.Category, error) {
	if c, ok := t.match(raw); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
}

// NormalizeLenient is used when a place is created as a side effect of a
// review. Empty input becomes Restaurant and unknown input becomes Other.
func (t Taxonomy) NormalizeLenient(raw string) places.Category {
	if strings.TrimSpace(raw) == "" {
		return t.omitted
	}
	if c, ok := t.match(raw); ok {
		return c
	}
	return t.fallback
}

// DefaultImage returns the placeholder image for c, falling back to Other's.
func (t Taxonomy) DefaultImage(c places.Category) string {
	if url, ok := t.images[c]; ok {
		return url
	}
	return t.images[t.fallback]
}
