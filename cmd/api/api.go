package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"placereview/internal/auth"
	"placereview/internal/config"
	"placereview/internal/domain/storage"
	"placereview/internal/engine"
	"placereview/internal/media"
	"placereview/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config.Config
	store         storage.Store
	engine        *engine.Engine
	logger        *zap.SugaredLogger
	media         media.Uploader // nil when CLOUDINARY_URL is unset
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.RateLimiterEnabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/reviews", func(r chi.Router) {
			r.Use(app.OptionalAuthTokenMiddleware)
			r.Post("/", app.createReviewHandler)

			r.Route("/{reviewID}", func(r chi.Router) {
				r.Get("/", app.getReviewHandler)
				r.Put("/", app.updateReviewHandler)
				r.Delete("/", app.deleteReviewHandler)
				r.Post("/like", app.likeReviewHandler)
			})
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/", app.listPlacesHandler)
			r.Get("/near", app.nearPlacesHandler)
			r.Get("/categories", app.listCategoriesHandler)
			r.Post("/", app.createPlaceHandler)

			r.Route("/{placeID}", func(r chi.Router) {
				r.Get("/", app.getPlaceHandler)
				r.Get("/reviews", app.listPlaceReviewsHandler)
				r.Put("/", app.updatePlaceHandler)
				r.With(app.BasicAuthMiddleware()).Delete("/", app.deletePlaceHandler)

				//Call DELETE /places/{placeID}/photos?photo_url={url}.
				r.Post("/photos", app.uploadPlacePhotoHandler)
				r.Delete("/photos", app.deletePlacePhotoHandler)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(app.AuthTokenMiddleware).Get("/me", app.getCurrentUserHandler)
			r.Get("/{userID}", app.getUserHandler)
		})

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
