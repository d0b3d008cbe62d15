package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sinergy/sinergy-web/docs"
	"github.com/sinergy/sinergy-web/internal/api/handler"
	"github.com/sinergy/sinergy-web/internal/api/middleware"
	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/api/view"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// Dependencies are the collaborators the HTTP surface is built from.
// Audit may be nil, in which case the audit listing is not mounted.
type Dependencies struct {
	Log      zerolog.Logger
	Routes   *domain.RouteTable
	Sessions *session.Manager
	Gate     ports.GateService
	Auth     ports.AuthService
	Chat     ports.ChatAPI
	Audit    ports.AccessAuditReader
	Pages    handler.PageSource
	Checks   []handler.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(deps.Sessions.Middleware())

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Pages and session ---
	pageHandler := handler.NewPageHandler(deps.Routes, deps.Pages, deps.Log)
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Routes, deps.Log)

	e.GET("/", pageHandler.Root)
	e.GET("/:page", pageHandler.Show, middleware.Gate(deps.Gate))
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)

	apiGroup := e.Group("/api", middleware.RequireIdentity(deps.Log))
	apiGroup.GET("/me", authHandler.Me)

	chatHandler := handler.NewChatHandler(deps.Chat, deps.Log)
	chat := apiGroup.Group("/chat")
	chat.POST("/heartbeat", chatHandler.Heartbeat)
	chat.GET("/usuarios", chatHandler.Roster)
	chat.GET("/mensagens", chatHandler.Messages)
	chat.POST("/enviar", chatHandler.Send)

	if deps.Audit != nil {
		auditHandler := handler.NewAuditHandler(deps.Audit, deps.Log)
		apiGroup.GET("/audit/:userID", auditHandler.ListByUser, middleware.RBAC(domain.RoleAdmin))
	}

	return e, nil
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID)
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Msg("request")
			return nil
		},
	})
}
