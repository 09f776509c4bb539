package main

import (
	"errors"
	"net/http"

	"placereview/internal/domain/users"
	"placereview/internal/params"

	"github.com/go-chi/chi/v5"
)

// PublicProfile is what other users can see of a reviewer.
type PublicProfile struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	ReviewsCount int        `json:"reviews_count"`
	XP           int        `json:"xp"`
	Rank         users.Rank `json:"rank"`
}

func publicProfile(u *users.User) PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		ReviewsCount: u.ReviewsCount,
		XP:           u.XP,
		Rank:         u.Rank,
	}
}

// getUserHandler godoc
//
//	@Summary		Public profile
//	@Description	Returns a user's name, review count, xp and rank.
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	PublicProfile
//	@Failure		404		{object}	error
//	@Router			/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := params.ID(chi.URLParam(r, "userID"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid user ID"))
		return
	}

	user, err := app.store.Users().GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.serviceUnavailableResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, publicProfile(user)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCurrentUserHandler godoc
//
//	@Summary		Current user
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}
