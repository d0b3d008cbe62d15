package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/session"
)

// RequireIdentity loads the caller from the session scopes and injects it
// into the context. Requests without an identity get a 401 JSON body.
func RequireIdentity(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := session.FromContext(c)
			if store == nil {
				return errors.New("identity store missing from request context")
			}

			id, err := store.Load(c.Request().Context())
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("identity unavailable")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}

			c.Set(KeyIdentity, id)
			c.Set(KeyRole, id.Role)
			c.Set(KeyUsername, id.Username)

			return next(c)
		}
	}
}
