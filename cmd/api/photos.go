package main

import (
	"errors"
	"fmt"
	"net/http"

	"placereview/internal/domain/places"
)

const (
	maxPhotoSize  = 5 * 1024 * 1024
	maxPhotoCount = 5
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// uploadPlacePhotoHandler godoc
//
//	@Summary		Upload place photos
//	@Description	Uploads up to 5 JPEG or PNG photos (5MB each) to Cloudinary and appends their URLs to the place.
//	@Tags			places
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			placeID	path		int		true	"Place ID"
//	@Param			photos	formData	file	true	"Photo files"
//	@Success		201		{object}	[]string
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		503		{object}	error
//	@Router			/places/{placeID}/photos [post]
func (app *application) uploadPlacePhotoHandler(w http.ResponseWriter, r *http.Request) {
	if app.media == nil {
		app.serviceUnavailableResponse(w, r, errors.New("photo uploads are not configured"))
		return
	}

	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoCount*maxPhotoSize+1024*1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("no photos provided"))
		return
	}
	if len(files) > maxPhotoCount {
		app.badRequestResponse(w, r, fmt.Errorf("maximum %d photos allowed", maxPhotoCount))
		return
	}
	for _, fh := range files {
		if fh.Size > maxPhotoSize {
			app.badRequestResponse(w, r, fmt.Errorf("%s exceeds the 5MB limit", fh.Filename))
			return
		}
		if !allowedPhotoTypes[fh.Header.Get("Content-Type")] {
			app.badRequestResponse(w, r, fmt.Errorf("%s: only JPEG and PNG images are allowed", fh.Filename))
			return
		}
	}

	ctx := r.Context()
	place, err := app.store.Places().GetByID(ctx, placeID)
	if err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	urls := make([]string, 0, len(files))
	for i, fh := range files {
		file, err := fh.Open()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		publicID := fmt.Sprintf("place_%d_%d", place.ID, len(place.Images)+i)
		url, err := app.media.Upload(ctx, file, publicID)
		file.Close()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		if err := app.store.Places().AddImage(ctx, place.ID, url); err != nil {
			app.placeStoreError(w, r, err)
			return
		}
		urls = append(urls, url)
	}

	app.logger.Infow("place photos uploaded", "place_id", place.ID, "count", len(urls))

	if err := app.jsonResponse(w, http.StatusCreated, urls); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePlacePhotoHandler godoc
//
//	@Summary		Delete a place photo
//	@Description	Removes a photo URL from the place and deletes the Cloudinary asset.
//	@Tags			places
//	@Produce		json
//	@Param			placeID		path	int		true	"Place ID"
//	@Param			photo_url	query	string	true	"Photo URL"
//	@Success		204
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/places/{placeID}/photos [delete]
func (app *application) deletePlacePhotoHandler(w http.ResponseWriter, r *http.Request) {
	if app.media == nil {
		app.serviceUnavailableResponse(w, r, errors.New("photo uploads are not configured"))
		return
	}

	placeID, ok := app.placeIDFromURL(w, r)
	if !ok {
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url is required"))
		return
	}

	ctx := r.Context()
	place, err := app.store.Places().GetByID(ctx, placeID)
	if err != nil {
		app.placeStoreError(w, r, err)
		return
	}

	// RemoveImage drops every copy of the URL, so count what would be left.
	remaining := 0
	for _, img := range place.Images {
		if img != photoURL {
			remaining++
		}
	}
	if remaining == len(place.Images) {
		app.notFoundResponse(w, r, fmt.Errorf("photo %q is not attached to place %d", photoURL, placeID))
		return
	}
	// images must never end up empty
	if remaining == 0 {
		app.badRequestResponse(w, r, errors.New("cannot remove the last photo of a place"))
		return
	}

	if err := app.store.Places().RemoveImage(ctx, placeID, photoURL); err != nil {
		if errors.Is(err, places.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.serviceUnavailableResponse(w, r, err)
		return
	}

	if err := app.media.Destroy(ctx, photoURL); err != nil {
		app.logger.Warnw("failed to delete photo from cloudinary", "place_id", placeID, "url", photoURL, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
