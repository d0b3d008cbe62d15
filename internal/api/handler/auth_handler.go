package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/metrics"
	"github.com/sinergy/sinergy-web/internal/api/view"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	routes      *domain.RouteTable
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, routes *domain.RouteTable, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, routes: routes, log: log}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"notblank,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=200"`
	Remember bool   `json:"remember" form:"lembrar"`
	Redirect string `json:"redirect" form:"redirect"`
}

type loginResponse struct {
	User     domain.Identity `json:"user"`
	Redirect string          `json:"redirect"`
}

const (
	msgInvalidCredentials = "Usuário ou senha inválidos."
	msgMissingCredentials = "Informe usuário e senha."
	msgLoginUnavailable   = "Não foi possível entrar agora. Tente novamente em instantes."
)

// Login authenticates against the Sinergy API and stores the identity.
//
// Form posts are answered with a redirect (or the login page with an error);
// JSON callers get the identity and the post-login target.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return h.loginFailed(c, http.StatusBadRequest, "invalid payload", req)
	}
	if err := c.Validate(&req); err != nil {
		if wantsJSON(c) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return h.loginFailed(c, http.StatusBadRequest, msgMissingCredentials, req)
	}

	id, err := h.authService.Login(c.Request().Context(), store, req.Username, req.Password, req.Remember)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return h.loginFailed(c, http.StatusUnauthorized, msgInvalidCredentials, req)
	case err != nil:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("username", req.Username).Msg("login failed")
		return h.loginFailed(c, http.StatusBadGateway, msgLoginUnavailable, req)
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	target := safeRedirect(req.Redirect, domain.PageHref(h.routes.Home()), h.routes.Login())
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, loginResponse{User: id, Redirect: target})
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (h *AuthHandler) loginFailed(c echo.Context, status int, msg string, req loginRequest) error {
	if wantsJSON(c) {
		return c.JSON(status, map[string]string{"error": msg})
	}
	return c.Render(status, view.TemplateLogin, view.LoginData{
		Username: req.Username,
		Redirect: safeRedirect(req.Redirect, "", h.routes.Login()),
		Remember: req.Remember,
		Error:    msg,
	})
}

// Logout clears both identity scopes.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), store); err != nil {
		// Cookies are already expired; a stale remembered entry ages out on its own.
		h.log.Warn().Err(err).Msg("logout left a scope behind")
	}

	if wantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, domain.PageHref(h.routes.Login()))
}

// Me returns the caller's identity.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  map[string]string
// @Router       /api/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, id)
}
