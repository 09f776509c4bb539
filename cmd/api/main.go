package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"time"

	"placereview/internal/auth"
	"placereview/internal/config"
	"placereview/internal/db"
	"placereview/internal/domain/storage"
	"placereview/internal/domain/storage/memstore"
	"placereview/internal/engine"
	"placereview/internal/keylock"
	"placereview/internal/media"
	"placereview/internal/ratelimiter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Place Review API
//	@description	Venue catalog and reviews with consistent ratings and reviewer progression.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatal(err)
	}

	// Storage
	var store storage.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = memstore.New()
		logger.Warn("using the in-memory store, data is lost on restart")
	default:
		pool, err := db.New(cfg.DBAddr, cfg.DBMaxConns, cfg.DBMaxIdleTime)
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")

		if cfg.DBAutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := db.Migrate(ctx, pool)
			cancel()
			if err != nil {
				logger.Fatal(err)
			}
			logger.Info("database schema applied")
		}

		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]int64{
				"total_conns":    int64(s.TotalConns()),
				"idle_conns":     int64(s.IdleConns()),
				"acquired_conns": int64(s.AcquiredConns()),
				"acquire_count":  s.AcquireCount(),
			}
		}))
		store = storage.NewContainer(pool)
	}

	// Locks
	var locks keylock.Locker
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		client, err := db.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal(err)
		}
		defer client.Close()
		logger.Infow("redis lock backend connected", "addr", cfg.RedisAddr)
		locks = keylock.NewRedis(client, cfg.LockTTL)
	default:
		locks = keylock.NewMemory()
	}

	eng := engine.New(store, locks, logger, engine.Config{
		XPPerReview:       cfg.XPPerReview,
		CompletionTimeout: cfg.CompletionTimeout,
		DefaultCity:       cfg.DefaultCity,
	})

	// Cloudinary is optional
	var uploader media.Uploader
	if cfg.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.CloudinaryURL, "places")
		if err != nil {
			logger.Fatal(err)
		}
		uploader = cld
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimiterRequests,
		cfg.RateLimiterTimeFrame,
	)
	defer rateLimiter.Stop()

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.AuthTokenSecret,
		cfg.AuthTokenRefreshSecret,
		cfg.AuthTokenIss,
		cfg.AuthTokenIss,
		cfg.AuthAccessTokenExp,
		cfg.AuthRefreshTokenExp,
	)

	app := &application{
		config:        cfg,
		store:         store,
		engine:        eng,
		logger:        logger,
		media:         uploader,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
