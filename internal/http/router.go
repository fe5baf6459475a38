// Package httpapi wires the HTTP transport (Gin) to the inbox services, the
// Telegram webhook, middleware and route handlers. It centralizes tracing,
// correlation IDs, redacted logging, panic recovery, metrics, compression,
// CORS, security headers and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/docs"
	"github.com/tbourn/go-signal-pipeline/internal/config"
	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/http/handlers"
	"github.com/tbourn/go-signal-pipeline/internal/http/middleware"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/services"
)

// WebhookPath is where Telegram posts updates.
const WebhookPath = "/telegram/webhook"

// signalRepoShim adapts the repository free functions to the
// services.SignalRepo interface expected by the SignalService.
type signalRepoShim struct{}

// CountSignals proxies repo.CountSignals.
func (signalRepoShim) CountSignals(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (int64, error) {
	return repo.CountSignals(ctx, db, f)
}

// ListSignalsPage proxies repo.ListSignalsPage.
func (signalRepoShim) ListSignalsPage(ctx context.Context, db *gorm.DB, f repo.SignalFilter, offset, limit int) ([]domain.SignalView, error) {
	return repo.ListSignalsPage(ctx, db, f, offset, limit)
}

// SignalsStats proxies repo.SignalsStats (ETag support).
func (signalRepoShim) SignalsStats(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (int64, int64, *time.Time, error) {
	return repo.SignalsStats(ctx, db, f)
}

// GetSignalDetail proxies repo.GetSignalDetail.
func (signalRepoShim) GetSignalDetail(ctx context.Context, db *gorm.DB, id string) (*domain.SignalDetail, error) {
	return repo.GetSignalDetail(ctx, db, id)
}

// HideSignal proxies repo.HideSignal.
func (signalRepoShim) HideSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	return repo.HideSignal(ctx, db, id, now)
}

// UnhideSignal proxies repo.UnhideSignal.
func (signalRepoShim) UnhideSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UnhideSignal(ctx, db, id)
}

// RestoreHidden proxies repo.RestoreHidden.
func (signalRepoShim) RestoreHidden(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.RestoreHidden(ctx, db)
}

// FavoriteSignal proxies repo.FavoriteSignal.
func (signalRepoShim) FavoriteSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Favorite, error) {
	return repo.FavoriteSignal(ctx, db, id, now)
}

// UnfavoriteSignal proxies repo.UnfavoriteSignal.
func (signalRepoShim) UnfavoriteSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UnfavoriteSignal(ctx, db, id)
}

// CountFavorites proxies repo.CountFavorites.
func (signalRepoShim) CountFavorites(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountFavorites(ctx, db)
}

// ListFavoritesPage proxies repo.ListFavoritesPage.
func (signalRepoShim) ListFavoritesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Favorite, error) {
	return repo.ListFavoritesPage(ctx, db, offset, limit)
}

// ListMutes proxies repo.ListMutes.
func (signalRepoShim) ListMutes(ctx context.Context, db *gorm.DB) ([]domain.Mute, error) {
	return repo.ListMutes(ctx, db)
}

// MuteSource proxies repo.MuteSource.
func (signalRepoShim) MuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind, now time.Time) error {
	return repo.MuteSource(ctx, db, source, now)
}

// UnmuteSource proxies repo.UnmuteSource.
func (signalRepoShim) UnmuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind) (bool, error) {
	return repo.UnmuteSource(ctx, db, source)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r. The
// Telegram webhook is mounted only when it is enabled in cfg and callbacks
// is non-nil.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with secret scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression
//  8. CORS and Security headers
//
// Rate limiting is applied per group: the API group is limited per IP, the
// webhook is limited after its secret check so authenticated updates bypass
// the limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, callbacks handlers.CallbackHandler, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	if err := middleware.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		log.Warn().Err(err).Msg("register http metrics")
	}
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) gzip for JSON payloads; promhttp negotiates its own encoding
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "X-Request-ID"}
	exposeHeaders := []string{"X-Request-ID", "ETag", "Content-Length"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	signalSvc := services.NewSignalService(db, signalRepoShim{})
	h := handlers.New(signalSvc, callbacks)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())

	if cfg.Telegram.WebhookEnabled && callbacks != nil {
		r.POST(WebhookPath,
			middleware.WebhookSecret(cfg.Telegram.WebhookSecret),
			rl.Handler(),
			h.TelegramWebhook,
		)
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(rl.Handler())
	{
		// Signals
		api.GET("/signals", h.ListSignals)
		api.GET("/signals/:id", h.GetSignal)
		api.POST("/signals/:id/hide", h.HideSignal)
		api.DELETE("/signals/:id/hide", h.UnhideSignal)
		api.DELETE("/hidden", h.RestoreHidden)

		// Favorites
		api.GET("/favorites", h.ListFavorites)
		api.POST("/signals/:id/favorite", h.FavoriteSignal)
		api.DELETE("/signals/:id/favorite", h.UnfavoriteSignal)

		// Mutes
		api.GET("/mutes", h.ListMutes)
		api.POST("/mutes/:source", h.MuteSource)
		api.DELETE("/mutes/:source", h.UnmuteSource)
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. Oversized bodies make downstream reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
