package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/api/middleware"
	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// ctxIdentity returns the caller injected by RequireIdentity or the gate.
// A missing or incomplete identity means the middleware did not run.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := c.Get(middleware.KeyIdentity).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

// ctxStore returns the request's identity store.
func ctxStore(c echo.Context) (ports.IdentityStore, error) {
	store := session.FromContext(c)
	if store == nil {
		return nil, errors.New("identity store missing from request context")
	}
	return store, nil
}

// ctxDecision returns the gate decision of a page request.
func ctxDecision(c echo.Context) (domain.GateDecision, error) {
	d, ok := c.Get(middleware.KeyDecision).(domain.GateDecision)
	if !ok {
		return domain.GateDecision{}, errors.New("page served without a gate decision")
	}
	return d, nil
}

// wantsJSON reports whether the caller is a script rather than a form post.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
