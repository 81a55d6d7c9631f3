// Package server assembles the gin router and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"toolbox_back/catalog"
	"toolbox_back/components"
	"toolbox_back/config"
	"toolbox_back/logging"
	"toolbox_back/storage"
	"toolbox_back/web"
)

const shutdownTimeout = 10 * time.Second

// Deps is everything the router needs. Redis may be nil.
type Deps struct {
	Config *config.Config
	Log    *logging.Logger
	Store  *catalog.Store
	Blobs  storage.BlobStore
	Redis  *redis.Client
	Now    func() time.Time
}

// New builds the engine. Fixed routes are registered before the single-segment
// catch-all that serves uploaded components.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes
	router.Use(gin.Recovery(), logging.RequestLogger(deps.Log))
	if len(cfg.CORS) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORS,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler(deps.Store, deps.Redis))
	web.RegisterRoutes(router)

	catalogModule := catalog.NewModule(deps.Store, deps.Log, deps.Now)
	componentModule := components.NewModule(deps.Store, deps.Blobs, deps.Log, components.Options{
		MaxBytes: cfg.Upload.MaxBytes,
		Redis:    deps.Redis,
		CacheTTL: cfg.CacheTTL,
		Now:      deps.Now,
	})

	api := router.Group("/api")
	catalogModule.RegisterRoutes(api)
	componentModule.RegisterRoutes(api)

	router.GET("/:path_name", componentModule.ServeComponent)
	return router
}

func healthHandler(store *catalog.Store, client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if client != nil {
			status["cache"] = "ok"
			if err := client.Ping(ctx).Err(); err != nil {
				status["cache"] = err.Error()
			}
		}
		c.JSON(code, status)
	}
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, handler http.Handler, addr string, log *logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
