package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/nextlevel/order-desk/docs"
	"github.com/nextlevel/order-desk/internal/api/handler"
	"github.com/nextlevel/order-desk/internal/api/middleware"
	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

const (
	defaultBodyLimit     = "2M"
	defaultAuthRateLimit = 5
	metricsSubsystem     = "orderdesk"
)

// Deps carries everything the HTTP layer needs. Services are built by the
// caller; the router only wires them to routes.
type Deps struct {
	Auth      ports.AuthService
	Orders    ports.OrderService
	Messages  ports.MessageService
	Admin     ports.AdminService
	Workspace ports.WorkspaceService
	Catalog   domain.Catalog

	// Checks are the readiness probes served at /health/ready.
	Checks map[string]handler.CheckFunc

	Logger      zerolog.Logger
	CORSOrigins []string
	// AuthRateLimit is the number of /auth requests allowed per minute per client IP.
	AuthRateLimit float64
	BodyLimit     string
	// Registry receives the HTTP metrics. Nil means the default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, handler.HeaderIdempotencyKey,
		},
	}))
	bodyLimit := d.BodyLimit
	if bodyLimit == "" {
		bodyLimit = defaultBodyLimit
	}
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	metricsCfg := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	handlerCfg := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		metricsCfg.Registerer = d.Registry
		handlerCfg.Gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsCfg))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	orderHandler := handler.NewOrderHandler(d.Orders)
	messageHandler := handler.NewMessageHandler(d.Messages)
	adminHandler := handler.NewAdminHandler(d.Admin)
	workspaceHandler := handler.NewWorkspaceHandler(d.Workspace)
	healthHandler := handler.NewHealthHandler(d.Checks)

	requireAuth := middleware.Auth(d.Auth)
	staffOnly := middleware.RBAC(domain.RoleEmployee, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/catalog", catalogHandler.Get)

	// --- Auth routes ---
	auth := e.Group("/auth", authRateLimiter(d.AuthRateLimit))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Orders ---
	orders := e.Group("/orders", requireAuth)
	orders.GET("", orderHandler.List, staffOnly)
	orders.POST("", orderHandler.Create, middleware.RBAC(domain.RoleClient))
	orders.GET("/user/:id", orderHandler.ListForUser)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id", orderHandler.Patch)
	orders.GET("/:id/messages", messageHandler.List)
	orders.POST("/:id/messages", messageHandler.Send)

	// --- Admin ---
	admin := e.Group("/admin", requireAuth, adminOnly)
	admin.GET("/stats/advanced", adminHandler.Stats)
	admin.GET("/audit-logs", adminHandler.AuditLogs)

	// --- Workspace ---
	e.GET("/workspace/employees", workspaceHandler.Employees, requireAuth, staffOnly)
	e.PATCH("/users/:id/status", workspaceHandler.SetStatus, requireAuth)

	return e
}

// authRateLimiter limits /auth requests per client IP to perMinute, with a
// burst of the same size.
func authRateLimiter(perMinute float64) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = defaultAuthRateLimit
	}
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perMinute / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
