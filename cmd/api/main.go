package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/distructnote/api/api/swagger"
	"github.com/distructnote/api/internal/handler"
	"github.com/distructnote/api/internal/hasher"
	"github.com/distructnote/api/internal/middleware"
	"github.com/distructnote/api/internal/models"
	"github.com/distructnote/api/internal/noteid"
	"github.com/distructnote/api/internal/repository"
	"github.com/distructnote/api/internal/service"
	"github.com/distructnote/api/pkg/cache"
	"github.com/distructnote/api/pkg/config"
	"github.com/distructnote/api/pkg/database"
	"github.com/distructnote/api/pkg/logger"
	corsmiddleware "github.com/distructnote/api/pkg/middleware/cors"
	reqidmiddleware "github.com/distructnote/api/pkg/middleware/requestid"
)

// @title Distruct Note API
// @version 1.0.0
// @description Self-destructing note service with view limits, expiry and optional password protection
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	store, readyCheck, closeStore, err := buildStore(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init note store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	metricsSvc := service.NewMetricsService()
	tokens := service.NewViewTokenService(service.ViewTokenConfig{
		Secret: cfg.ViewToken.Secret,
		TTL:    cfg.ViewToken.TTL,
	})
	notes := service.NewNoteService(
		store,
		noteid.New(cfg.Notes.IDLength),
		hasher.New(cfg.Notes.BcryptCost),
		tokens,
		metricsSvc,
		nil,
		logr,
		service.NoteConfig{
			DefaultMaxViews: cfg.Notes.DefaultMaxViews,
			MaxViewsLimit:   cfg.Notes.MaxViewsLimit,
			ExpiryWindow:    cfg.Notes.ExpiryWindow,
			SiteURL:         cfg.SiteURL,
		},
	)
	noteHandler := handler.NewNoteHandler(notes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := readyCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/notes", noteHandler.Create)
	api.GET("/notes/view", noteHandler.RedeemView)
	api.GET("/notes/:id", noteHandler.Access)
	api.GET("/notes/:id/meta", noteHandler.Meta)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweeper(notes, cfg.Sweep.Interval, logr)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// noteStore mirrors the store surface the note service depends on so
// main can pick a backend by config.
type noteStore interface {
	Insert(ctx context.Context, note *models.Note) error
	FetchActive(ctx context.Context, id string) (*models.Note, error)
	AtomicAccess(ctx context.Context, id string) (*models.Note, error)
	ExpireOlderThan(ctx context.Context, now time.Time) (int64, error)
	ExistsActive(ctx context.Context, id string) (bool, error)
	RequiresPassword(ctx context.Context, id string) (bool, error)
}

// buildStore selects the note store backend. It returns the store, a
// readiness probe and a close function.
func buildStore(cfg *config.Config, logr *zap.Logger) (noteStore, func(context.Context) error, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewNoteRepository(db, cfg.Store.QueryTimeout),
			func(ctx context.Context) error { return db.PingContext(ctx) },
			func() { db.Close() }, //nolint:errcheck
			nil
	case config.StoreRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewRedisNoteRepository(client, cfg.Store.QueryTimeout),
			func(ctx context.Context) error { return client.Ping(ctx).Err() },
			func() { client.Close() }, //nolint:errcheck
			nil
	case config.StoreMemory:
		logr.Warn("using in-memory note store, notes do not survive restarts")
		return repository.NewMemoryNoteRepository(),
			func(context.Context) error { return nil },
			func() {},
			nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
