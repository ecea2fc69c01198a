// Package httpapi wires the HTTP transport (Gin) to the card services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and edge rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-songcard-backend/internal/app"
	"github.com/tbourn/go-songcard-backend/internal/http/handlers"
	"github.com/tbourn/go-songcard-backend/internal/http/middleware"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

const (
	maxBodyBytes   = 1 << 20
	healthTimeout  = 2 * time.Second
	corsMaxAge     = 12 * time.Hour
	idemKeyMaxLen  = 200
	headerReplayed = "Idempotency-Replayed"
)

var (
	corsMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", headerReplayed}
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Features map[string]bool `json:"features"`
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the card API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Edge token bucket per client IP
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, a *app.App) {
	cfg := a.Config
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: idemKeyMaxLen},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, a.DB, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", healthHandler(a))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(a.Cards, a.Workflow)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Cards
		api.POST("/cards", h.CreateCard)
		api.GET("/cards/:idOrShareId", h.GetCard)
		api.PATCH("/cards/:id", h.PatchCard)

		// Generation
		api.POST("/generate-lyrics", h.GenerateLyrics)
		api.POST("/generate-song", h.GenerateSong)
		api.GET("/song-status/:jobId", h.SongStatus)

		// Delivery
		api.POST("/send-card", h.SendCard)
	}
}

// corsMiddleware allows every origin when none are configured and otherwise
// echoes allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           corsMaxAge,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           corsMaxAge,
		}),
	}
}

// healthHandler godoc
// @ID       health
// @Summary  Liveness and dependency check
// @Tags     System
// @Produce  json
// @Success  200  {object}  httpapi.HealthResponse
// @Failure  503  {object}  httpapi.HealthResponse
// @Router   /health [get]
func healthHandler(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:   "ok",
			Database: "ok",
			Features: map[string]bool{
				"lyrics": a.Workflow.Lyrics != nil,
				"songs":  a.Workflow.Songs != nil,
				"email":  a.Workflow.Mail != nil,
				"demo":   a.Config.DemoMode,
			},
		}
		if err := repo.Ping(ctx, a.DB); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database ping failed")
			resp.Status, resp.Database = "degraded", "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body reads
// to error.
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
