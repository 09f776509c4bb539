package main

import (
	"errors"
	"net/http"
	"strings"

	"placereview/internal/domain/places"
	"placereview/internal/params"

	"github.com/go-chi/chi/v5"
)

const (
	defaultNearDistance = 10000 // meters
	defaultNearLimit    = 50
)

type CreatePlacePayload struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Category    string    `json:"category" validate:"required,max=50"`
	PriceRange  string    `json:"price_range" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	City        string    `json:"city" validate:"max=100"`
	Address     string    `json:"address" validate:"required,max=255"`
	Location    []float64 `json:"location" validate:"omitempty,len=2"`
	Images      []string  `json:"images" validate:"omitempty,max=10,unique,dive,url"`
}

// UpdatePlacePayload edits descriptive fields only. Ratings are derived
// from reviews and cannot be set here.
type UpdatePlacePayload struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Category    *string   `json:"category" validate:"omitempty,max=50"`
	PriceRange  *string   `json:"price_range" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	City        *string   `json:"city" validate:"omitempty,max=100"`
	Address     *string   `json:"address" validate:"omitempty,max=255"`
	Location    []float64 `json:"location" validate:"omitempty,len=2"`
	Images      []string  `json:"images" validate:"omitempty,min=1,max=10,unique,dive,url"`
}

type PlaceListResponse struct {
	Places     []places.Place    `json:"places"`
	Pagination params.Pagination `json:"pagination"`
}

func (app *application) placeIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	placeID, err := params.ID(chi.URLParam(r, "placeID"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid place ID"))
		return 0, false
	}
	return placeID, true
}

// placeStoreError writes the response for a failed places store call.
func (app *application) placeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, places.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, places.ErrDuplicateName):
		app.conflictResponse(w, r, err)
	default:
		app.serviceUnavailableResponse(w, r, err)
	}
}

// listPlacesHandler godoc
//
//	@Summary		List places
//	@Description	Lists places, optionally filtered by category and price range. sort=rating orders by overall rating.
//	@Tags			places
//	@Produce		json
//	@Param			category	query		string	false	"Category"
//	@Param			priceRange	query		string	false	"Price range"	Enums($, $$, $$$, $$$$)
//	@Param			sort		query		string	false	"Sort"			Enums(rating)
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	PlaceListResponse
//	@Failure		400			{object}	error
//	@Router			/places [get]
func (app *application) listPlacesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagination := params.ParsePagination(q)

	filter := places.Filter{
		SortByRating: q.Get("sort") == "rating",
		Limit:        pagination.Limit,
		Offset:       pagination.Offset,
	}

	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := app.engine.Taxonomy.Normalize(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filter.Category = &category
	}

	if raw := strings.TrimSpace(q.Get("priceRange")); raw != "" {
		price := places.PriceRange(raw)
		if !price.Valid() {
			app.badRequestResponse(w, r, errors.New("priceRange must be one of $, $$, $$$, $$$$"))
			return
		}
		filter.PriceRange = &price
	}

	list, total, err := app.store.Places().List(r.Context(), filter)
	if err != nil {
		app.serviceUnavailableResponse(w, r, err)
		return
	}
	pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, PlaceListResponse{Places: list, Pagination: pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// nearPlacesHandler godoc
//
//	@Summary		Places near a point
//	@Tags			places
//	@Produce		json
//	@Param			lng			query		number	true	"Longitude"
//	@Param			lat			query		number	true	"Latitude"
//	@Param			maxDistance	query		number	false	"Radius in meters, default 10000"
//	@Success		200			{array}		places.Place
//	@Failure		400			{object}	error
//	@Router			/places/near [get]
func (app *application) nearPlacesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lng, err := params.Float(q, "lng")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	lat, err := params.Float(q, "lat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		app.badRequestResponse(w, r, errors.New("lng/lat out of range"))
		return
	}
	maxDistance, err := params.FloatOr(q, "maxDistance", defaultNearDistance)
	if err != nil || maxDistance <= 0 {
		app.badRequestResponse(w, r, errors.New("maxDistance must be a positive number"))
		return
	}

	list, err := app.store.Places().Near(r.Context(), places.NearQuery{
		Longitude:   lng,
		Latitude:    lat,
		MaxDistance: maxDistance,
		Limit:       defaultNearLimit,
	})
	if err != nil {
		app.serviceUnavailableResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, app.engine.Taxonomy.Categories()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPlaceHandler godoc
//
//	@Summary		Get a place
//	@Tags			places
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{object}	places.Place
//	@Failure		404		{object}	error
//	@Router			/places/{placeID} [get]
func (app *application) getPlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	place, err := app.store.Places().GetByID(r.Context(), placeID)
	if err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, place); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listPlaceReviewsHandler godoc
//
//	@Summary		Reviews of a place
//	@Description	Lists a place's reviews, newest first.
//	@Tags			places
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{array}		reviews.Review
//	@Router			/places/{placeID}/reviews [get]
func (app *application) listPlaceReviewsHandler(w http.ResponseWriter, r *http.Request) {
	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	list, err := app.store.Reviews().ListByPlace(r.Context(), placeID)
	if err != nil {
		app.serviceUnavailableResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createPlaceHandler godoc
//
//	@Summary		Create a place
//	@Description	Creates a place directly. The category must be one of the known categories.
//	@Tags			places
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreatePlacePayload	true	"Place"
//	@Success		201		{object}	places.Place
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Router			/places [post]
func (app *application) createPlaceHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePlacePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.engine.Taxonomy.Normalize(payload.Category)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	name := places.NormalizeName(payload.Name)
	if name == "" {
		app.badRequestResponse(w, r, errors.New("name cannot be blank"))
		return
	}

	place := &places.Place{
		Name:        name,
		Description: payload.Description,
		Category:    category,
		PriceRange:  places.PriceRange(payload.PriceRange),
		City:        payload.City,
		Address:     payload.Address,
		Location:    payload.Location,
		Images:      payload.Images,
	}
	if place.PriceRange == "" {
		place.PriceRange = places.PriceModerate
	}
	if place.City == "" {
		place.City = app.config.DefaultCity
	}
	if len(place.Images) == 0 {
		place.Images = []string{app.engine.Taxonomy.DefaultImage(category)}
	}

	if err := app.store.Places().Create(r.Context(), place); err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, place); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updatePlaceHandler godoc
//
//	@Summary		Update a place
//	@Tags			places
//	@Accept			json
//	@Produce		json
//	@Param			placeID	path		int					true	"Place ID"
//	@Param			payload	body		UpdatePlacePayload	true	"Fields to change"
//	@Success		200		{object}	places.Place
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Router			/places/{placeID} [put]
func (app *application) updatePlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	var payload UpdatePlacePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Name != nil {
		name := places.NormalizeName(*payload.Name)
		if name == "" {
			app.badRequestResponse(w, r, errors.New("name cannot be blank"))
			return
		}
		payload.Name = &name
	}

	if payload.Images != nil && len(payload.Images) == 0 {
		app.badRequestResponse(w, r, errors.New("a place needs at least one image"))
		return
	}

	patch := places.Patch{
		Name:        payload.Name,
		Description: payload.Description,
		City:        payload.City,
		Address:     payload.Address,
		Location:    payload.Location,
		Images:      payload.Images,
	}
	if payload.Category != nil {
		category, err := app.engine.Taxonomy.Normalize(*payload.Category)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		patch.Category = &category
	}
	if payload.PriceRange != nil {
		price := places.PriceRange(*payload.PriceRange)
		patch.PriceRange = &price
	}

	place, err := app.store.Places().Update(r.Context(), placeID, patch)
	if err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, place); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePlaceHandler godoc
//
//	@Summary		Delete a place
//	@Description	Deletes a place. Its reviews are kept and become orphans.
//	@Tags			places
//	@Param			placeID	path	int	true	"Place ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/places/{placeID} [delete]
func (app *application) deletePlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	if err := app.store.Places().Delete(r.Context(), placeID); err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	app.logger.Infow("place deleted", "place_id", placeID)
	w.WriteHeader(http.StatusNoContent)
}
