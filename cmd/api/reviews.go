package main

import (
	"errors"
	"net/http"
	"time"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/users"
	"placereview/internal/engine"
	"placereview/internal/params"

	"github.com/go-chi/chi/v5"
)

const visitDateLayout = "2006-01-02"

type CreateReviewPayload struct {
	PlaceID         *int64    `json:"place_id" validate:"omitempty,gt=0"`
	PlaceName       string    `json:"place_name" validate:"max=200"`
	AuthorName      string    `json:"author_name" validate:"max=100"`
	AuthorAvatarURL string    `json:"author_avatar_url" validate:"omitempty,url"`
	Rating          int       `json:"rating" validate:"required,min=1,max=5"`
	Comment         string    `json:"comment" validate:"max=2000"`
	VisitDate       string    `json:"visit_date" validate:"omitempty,datetime=2006-01-02"`
	Images          []string  `json:"images" validate:"omitempty,max=10,unique,dive,url"`
	Tags            []string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Category        string    `json:"category" validate:"max=50"`
	Address         string    `json:"address" validate:"max=255"`
	PriceRange      string    `json:"price_range" validate:"max=4"`
	City            string    `json:"city" validate:"max=100"`
	Location        []float64 `json:"location" validate:"omitempty,len=2"`
}

type UpdateReviewPayload struct {
	AuthorName *string  `json:"author_name" validate:"omitempty,max=100"`
	Rating     *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment    *string  `json:"comment" validate:"omitempty,max=2000"`
	VisitDate  *string  `json:"visit_date" validate:"omitempty,datetime=2006-01-02"`
	Images     []string `json:"images" validate:"omitempty,max=10,unique,dive,url"`
	Tags       []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

type ReviewResponse struct {
	Review   *reviews.Review   `json:"review"`
	Place    *places.Place     `json:"place,omitempty"`
	Progress *users.Progress   `json:"progress,omitempty"`
	Stage    engine.Stage      `json:"stage"`
	Rating   *engine.Aggregate `json:"place_rating,omitempty"`
}

func parseVisitDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(visitDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Description	Creates a review for an existing place (place_id) or for a place looked up or created by name (place_name). The author comes from the bearer token when one is sent.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateReviewPayload	true	"Review"
//	@Success		201		{object}	ReviewResponse
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		503		{object}	error
//	@Router			/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	visitDate, err := parseVisitDate(payload.VisitDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in := engine.CreateInput{
		PlaceID:         payload.PlaceID,
		PlaceName:       payload.PlaceName,
		AuthorName:      payload.AuthorName,
		AuthorAvatarURL: payload.AuthorAvatarURL,
		Rating:          payload.Rating,
		Comment:         payload.Comment,
		VisitDate:       visitDate,
		Images:          payload.Images,
		Tags:            payload.Tags,
		Category:        payload.Category,
		Address:         payload.Address,
		PriceRange:      payload.PriceRange,
		City:            payload.City,
		Location:        payload.Location,
	}

	// the author is whoever holds the token, never the payload
	if user := getUserFromContext(r); user != nil {
		in.AuthorID = &user.ID
		if in.AuthorName == "" {
			in.AuthorName = user.Name
		}
	}

	res, err := app.engine.Coordinator.Create(r.Context(), in)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if res.Inconsistency != nil {
		app.logger.Warnw("review created with stale aggregates", "review_id", res.Review.ID, "stage", res.Stage, "error", res.Inconsistency)
	}

	resp := ReviewResponse{
		Review:   res.Review,
		Place:    res.Place,
		Progress: res.Progress,
		Stage:    res.Stage,
		Rating:   res.Aggregate,
	}
	if err := app.partialResponse(w, http.StatusCreated, resp, res.Inconsistency); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) reviewFromURL(w http.ResponseWriter, r *http.Request) (*reviews.Review, bool) {
	reviewID, err := params.ID(chi.URLParam(r, "reviewID"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return nil, false
	}

	review, err := app.store.Reviews().GetByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.serviceUnavailableResponse(w, r, err)
		}
		return nil, false
	}
	return review, true
}

// canModify reports whether the caller may edit or delete review. Reviews
// with an author belong to that author; anonymous reviews are open.
func canModify(r *http.Request, review *reviews.Review) bool {
	if review.AuthorID == nil {
		return true
	}
	user := getUserFromContext(r)
	return user != nil && user.ID == *review.AuthorID
}

// getReviewHandler godoc
//
//	@Summary		Get a review
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	reviews.Review
//	@Failure		404			{object}	error
//	@Router			/reviews/{reviewID} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	review, ok := app.reviewFromURL(w, r)
	if !ok {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update a review
//	@Description	Updates review fields and refreshes the place rating. The place of a review cannot be changed.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"Fields to change"
//	@Success		200			{object}	ReviewResponse
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [put]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	review, ok := app.reviewFromURL(w, r)
	if !ok {
		return
	}
	if !canModify(r, review) {
		app.forbiddenResponse(w, r)
		return
	}

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	patch := reviews.Patch{
		AuthorName: payload.AuthorName,
		Rating:     payload.Rating,
		Comment:    payload.Comment,
		Images:     payload.Images,
		Tags:       payload.Tags,
	}
	if payload.VisitDate != nil {
		visitDate, err := parseVisitDate(*payload.VisitDate)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		patch.VisitDate = visitDate
	}

	res, err := app.engine.Coordinator.Update(r.Context(), review.ID, patch)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	resp := ReviewResponse{Review: res.Review, Stage: res.Stage, Rating: res.Aggregate}
	if err := app.partialResponse(w, http.StatusOK, resp, res.Inconsistency); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Deletes a review and refreshes its place rating. XP granted for the review is kept.
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	ReviewResponse
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	review, ok := app.reviewFromURL(w, r)
	if !ok {
		return
	}
	if !canModify(r, review) {
		app.forbiddenResponse(w, r)
		return
	}

	res, err := app.engine.Coordinator.Delete(r.Context(), review.ID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	resp := ReviewResponse{Review: res.Review, Stage: res.Stage, Rating: res.Aggregate}
	if err := app.partialResponse(w, http.StatusOK, resp, res.Inconsistency); err != nil {
		app.internalServerError(w, r, err)
	}
}

// likeReviewHandler godoc
//
//	@Summary		Like a review
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	map[string]int
//	@Failure		404			{object}	error
//	@Router			/reviews/{reviewID}/like [post]
func (app *application) likeReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := params.ID(chi.URLParam(r, "reviewID"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	likes, err := app.store.Reviews().Like(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.serviceUnavailableResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"likes": likes}); err != nil {
		app.internalServerError(w, r, err)
	}
}
