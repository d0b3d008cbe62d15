package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/api/metrics"
	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// Gate runs the session gate for a page request. Redirect decisions are
// answered here; every other decision is stored in the context for the
// page handler to render.
func Gate(gate ports.GateService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			page := c.Param("page")
			if page == "" {
				page = c.Request().URL.Path
			}
			if !strings.HasSuffix(strings.ToLower(page), ".html") {
				return echo.ErrNotFound
			}

			d := gate.Evaluate(c.Request().Context(), ports.GateRequest{
				Page:         page,
				RequestedURL: c.Request().URL.RequestURI(),
				Scopes:       session.FromContext(c),
				RequestID:    c.Response().Header().Get(echo.HeaderXRequestID),
			})
			metrics.GateDecisionsTotal.WithLabelValues(string(d.Outcome)).Inc()

			if d.Redirect != "" {
				return c.Redirect(http.StatusFound, d.Redirect)
			}

			c.Set(KeyDecision, d)
			if d.Identity != nil {
				c.Set(KeyIdentity, *d.Identity)
				c.Set(KeyRole, d.Identity.Role)
				c.Set(KeyUsername, d.Identity.Username)
			}
			return next(c)
		}
	}
}
