package http

import (
	"time"

	"github.com/geocoder89/lostfound/internal/config"
	"github.com/geocoder89/lostfound/internal/http/handlers"
	"github.com/geocoder89/lostfound/internal/http/middlewares"
	"github.com/geocoder89/lostfound/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Config   config.Config
	Items    handlers.ItemsService
	Auth     handlers.AuthService
	Verifier middlewares.TokenVerifier
	// Ping checks storage for /readyz; nil means always ready.
	Ping func() error

	Metrics  *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("lostfound-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(deps.Config.Env != "dev" && deps.Config.Env != "test"))
	r.Use(middlewares.CORSMiddleware(deps.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Config.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/health", h.Health)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(deps.Verifier)
	requireJSON := middlewares.RequireJSON()

	loginLimit := deps.Config.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginLimiter := middlewares.NewRateLimiter(loginLimit, time.Minute)
	registerLimiter := middlewares.NewRateLimiter(loginLimit, time.Minute)

	createLimit := deps.Config.CreateRateLimit
	if createLimit <= 0 {
		createLimit = 30
	}
	createLimiter := middlewares.NewRateLimiter(createLimit, time.Minute)

	authHandler := handlers.NewAuthHandler(deps.Auth)
	authGroup := r.Group("/auth")
	authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), requireJSON, authHandler.Login)
	authGroup.POST("/register", registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP), requireJSON, authHandler.Register)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	itemsHandler := handlers.NewItemsHandler(deps.Items)
	r.GET("/items", itemsHandler.ListItems)
	r.GET("/items/:id", itemsHandler.GetItem)

	protected := r.Group("/items", authMW.RequireAuth())
	protected.POST("", createLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), requireJSON, itemsHandler.CreateItem)
	protected.PUT("/:id", requireJSON, itemsHandler.UpdateItem)
	protected.PATCH("/:id", requireJSON, itemsHandler.UpdateItem)
	protected.DELETE("/:id", itemsHandler.DeleteItem)

	r.NoRoute(handlers.RouteNotFound)

	return r
}
