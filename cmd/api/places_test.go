package main

import (
	"fmt"
	"net/http"
	"testing"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/engine"
)

func createPlace(t *testing.T, s *testServer, body map[string]any) places.Place {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/v1/places", body, nil)
	expectStatus(t, rr, http.StatusCreated)
	return decode[places.Place](t, rr).Data
}

func TestCreatePlaceStrictCategory(t *testing.T) {
	s := newTestServer(t)

	place := createPlace(t, s, map[string]any{
		"name":     "Roti Bakar 88",
		"category": " bakery ",
		"address":  "Jl. Sabang 8",
	})
	if place.Category != places.CategoryBakery {
		t.Fatalf("expected Bakery, got %q", place.Category)
	}
	if place.PriceRange != places.PriceModerate || place.City != engine.DefaultCity {
		t.Fatalf("unexpected defaults: %+v", place)
	}
	if len(place.Images) != 1 || place.Images[0] != engine.DefaultTaxonomy().DefaultImage(places.CategoryBakery) {
		t.Fatalf("expected the bakery placeholder image, got %v", place.Images)
	}
	if place.OverallRating != 0 || place.ReviewCount != 0 {
		t.Fatalf("a new place has no rating, got %+v", place)
	}

	rr := s.do(t, http.MethodPost, "/v1/places", map[string]any{
		"name": "Bistro One", "category": "Bistro", "address": "Jl. Kemang",
	}, nil)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = s.do(t, http.MethodPost, "/v1/places", map[string]any{
		"name": "Roti Bakar 88", "category": "Bakery", "address": "elsewhere",
	}, nil)
	expectStatus(t, rr, http.StatusConflict)

	rr = s.do(t, http.MethodPost, "/v1/places", map[string]any{
		"name": "Cheap", "category": "Cafe", "address": "x", "price_range": "$$$$$",
	}, nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestListPlaces(t *testing.T) {
	s := newTestServer(t)

	createPlace(t, s, map[string]any{"name": "A", "category": "Cafe", "address": "a", "price_range": "$"})
	createPlace(t, s, map[string]any{"name": "B", "category": "Cafe", "address": "b", "price_range": "$$$"})
	createPlace(t, s, map[string]any{"name": "C", "category": "Street Food", "address": "c", "price_range": "$"})

	for name, rating := range map[string]int{"A": 2, "B": 5, "C": 4} {
		rr := s.do(t, http.MethodPost, "/v1/reviews", map[string]any{"place_name": name, "rating": rating}, nil)
		expectStatus(t, rr, http.StatusCreated)
	}

	rr := s.do(t, http.MethodGet, "/v1/places?category=CAFE&sort=rating", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	list := decode[PlaceListResponse](t, rr).Data
	if list.Pagination.Total != 2 || len(list.Places) != 2 {
		t.Fatalf("expected 2 cafes, got %+v", list.Pagination)
	}
	if list.Places[0].Name != "B" || list.Places[1].Name != "A" {
		t.Fatalf("expected rating order B, A; got %s, %s", list.Places[0].Name, list.Places[1].Name)
	}

	rr = s.do(t, http.MethodGet, "/v1/places?priceRange=$&limit=1", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	list = decode[PlaceListResponse](t, rr).Data
	if list.Pagination.Total != 2 || len(list.Places) != 1 || !list.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", list.Pagination)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/v1/places?category=Bistro", nil, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/v1/places?priceRange=cheap", nil, nil), http.StatusBadRequest)
}

func TestNearPlaces(t *testing.T) {
	s := newTestServer(t)

	createPlace(t, s, map[string]any{"name": "Monas", "category": "Other", "address": "Gambir", "location": []float64{106.8272, -6.1754}})
	createPlace(t, s, map[string]any{"name": "Kota Tua", "category": "Other", "address": "Taman Sari", "location": []float64{106.8133, -6.1352}})
	createPlace(t, s, map[string]any{"name": "Gedung Sate", "category": "Other", "address": "Bandung", "location": []float64{107.6191, -6.9025}})

	rr := s.do(t, http.MethodGet, "/v1/places/near?lng=106.8272&lat=-6.1754", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	near := decode[[]places.Place](t, rr).Data
	if len(near) != 2 || near[0].Name != "Monas" || near[1].Name != "Kota Tua" {
		t.Fatalf("unexpected nearby places: %+v", near)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/v1/places/near?lng=106.8", nil, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/v1/places/near?lng=200&lat=0", nil, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/v1/places/near?lng=0&lat=0&maxDistance=-1", nil, nil), http.StatusBadRequest)
}

func TestUpdatePlaceKeepsRating(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/v1/reviews", map[string]any{"place_name": "Nasi Uduk", "rating": 3}, nil)
	expectStatus(t, rr, http.StatusCreated)
	place := decode[ReviewResponse](t, rr).Data.Place
	path := fmt.Sprintf("/v1/places/%d", place.ID)

	rr = s.do(t, http.MethodPut, path, map[string]any{"address": "Jl. Kebon Kacang", "category": "street food"}, nil)
	expectStatus(t, rr, http.StatusOK)
	updated := decode[places.Place](t, rr).Data
	if updated.Address != "Jl. Kebon Kacang" || updated.Category != places.CategoryStreetFood {
		t.Fatalf("unexpected place after update: %+v", updated)
	}
	if updated.OverallRating != 3 || updated.ReviewCount != 1 {
		t.Fatalf("descriptive edits must not touch the rating, got %+v", updated)
	}

	expectStatus(t, s.do(t, http.MethodPut, path, map[string]any{"overall_rating": 5}, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPut, path, map[string]any{"images": []string{}}, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPut, "/v1/places/999", map[string]any{"city": "Bogor"}, nil), http.StatusNotFound)
}

func TestDeletePlaceKeepsReviews(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/v1/reviews", map[string]any{"place_name": "Gudeg", "rating": 4}, nil)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[ReviewResponse](t, rr).Data
	path := fmt.Sprintf("/v1/places/%d", created.Place.ID)

	expectStatus(t, s.do(t, http.MethodDelete, path, nil, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodDelete, path, nil, basic("admin", "secret")), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodGet, path, nil, nil), http.StatusNotFound)

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/v1/reviews/%d", created.Review.ID), nil, nil)
	expectStatus(t, rr, http.StatusOK)

	// deleting the orphan review is tolerated
	rr = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/reviews/%d", created.Review.ID), nil, nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestListPlaceReviews(t *testing.T) {
	s := newTestServer(t)

	var placeID int64
	for i, rating := range []int{5, 1, 3} {
		rr := s.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"place_name": "Ketoprak",
			"rating":     rating,
			"comment":    fmt.Sprintf("visit %d", i),
		}, nil)
		expectStatus(t, rr, http.StatusCreated)
		placeID = decode[ReviewResponse](t, rr).Data.Review.PlaceID
	}

	rr := s.do(t, http.MethodGet, fmt.Sprintf("/v1/places/%d/reviews", placeID), nil, nil)
	expectStatus(t, rr, http.StatusOK)
	list := decode[[]reviews.Review](t, rr).Data
	if len(list) != 3 || list[0].Comment != "visit 2" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/v1/places/%d", placeID), nil, nil)
	place := decode[places.Place](t, rr).Data
	if place.OverallRating != 3 || place.ReviewCount != 3 {
		t.Fatalf("unexpected aggregate: %+v", place)
	}
}

func TestListCategories(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/v1/places/categories", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[[]places.Category](t, rr).Data; len(got) != 5 {
		t.Fatalf("expected five categories, got %v", got)
	}
}

func TestPlaceNameMatchesAcrossEntryPoints(t *testing.T) {
	s := newTestServer(t)

	place := createPlace(t, s, map[string]any{"name": "Cafe X ", "category": "Cafe", "address": "Jl. Cikini"})
	if place.Name != "Cafe X" {
		t.Fatalf("stored name = %q", place.Name)
	}

	rr := s.do(t, http.MethodPost, "/v1/reviews", map[string]any{"place_name": "Cafe X ", "rating": 4}, nil)
	expectStatus(t, rr, http.StatusCreated)
	body := decode[ReviewResponse](t, rr).Data
	if body.Place != nil || body.Review.PlaceID != place.ID {
		t.Fatalf("expected the review on place %d, got place %d (created %v)", place.ID, body.Review.PlaceID, body.Place != nil)
	}

	_, total, err := s.mem.Places().List(t.Context(), places.Filter{})
	if err != nil {
		t.Fatalf("list places: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one place, got %d", total)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/v1/places", map[string]any{
		"name": "   ", "category": "Cafe", "address": "x",
	}, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPut, fmt.Sprintf("/v1/places/%d", place.ID), map[string]any{"name": "  "}, nil), http.StatusBadRequest)
}

func TestPlaceImagesMustBeUnique(t *testing.T) {
	s := newTestServer(t)
	dup := []string{"https://x.test/a.jpg", "https://x.test/a.jpg"}

	expectStatus(t, s.do(t, http.MethodPost, "/v1/places", map[string]any{
		"name": "Twin", "category": "Cafe", "address": "x", "images": dup,
	}, nil), http.StatusBadRequest)

	place := createPlace(t, s, map[string]any{"name": "Single", "category": "Cafe", "address": "x"})
	expectStatus(t, s.do(t, http.MethodPut, fmt.Sprintf("/v1/places/%d", place.ID), map[string]any{"images": dup}, nil), http.StatusBadRequest)

	expectStatus(t, s.do(t, http.MethodPost, "/v1/reviews", map[string]any{
		"place_name": "Single", "rating": 3, "images": dup,
	}, nil), http.StatusBadRequest)
}
