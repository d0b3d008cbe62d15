package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/view"
	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// PageSource supplies page bodies.
type PageSource interface {
	Body(page string) (template.HTML, error)
}

// PageHandler renders the outcome of the session gate.
type PageHandler struct {
	routes *domain.RouteTable
	pages  PageSource
	log    zerolog.Logger
}

func NewPageHandler(routes *domain.RouteTable, pages PageSource, log zerolog.Logger) *PageHandler {
	return &PageHandler{routes: routes, pages: pages, log: log}
}

// Root sends visitors to the home page, which the gate then guards.
func (h *PageHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, domain.PageHref(h.routes.Home()))
}

// Show renders a gated page: the layout when access was granted, the
// blocking modal when it was denied, or an auth page for anonymous visitors.
func (h *PageHandler) Show(c echo.Context) error {
	d, err := ctxDecision(c)
	if err != nil {
		return err
	}

	switch {
	case d.Granted():
		return h.renderGranted(c, d)

	case d.State == domain.StateAccessDenied:
		denial := d.Denial
		if denial == nil {
			denial = &domain.Denial{Reason: domain.DenialAccess, Title: "Acesso negado"}
		}
		return c.Render(http.StatusForbidden, view.TemplateDenied, view.DeniedData{
			Page:     d.Page,
			Title:    denial.Title,
			Message:  denial.Message,
			HomeHref: domain.PageHref(h.routes.Home()),
		})

	case d.Outcome == domain.OutcomeAnonymous:
		if d.Page == h.routes.Login() {
			return c.Render(http.StatusOK, view.TemplateLogin, view.LoginData{
				Redirect: safeRedirect(c.QueryParam("redirect"), "", h.routes.Login()),
			})
		}
		return c.Render(http.StatusOK, view.TemplateRecover, nil)
	}

	h.log.Error().Str("page", d.Page).Str("state", string(d.State)).Msg("gate decision cannot be rendered")
	return echo.ErrInternalServerError
}

func (h *PageHandler) renderGranted(c echo.Context, d domain.GateDecision) error {
	body, err := h.pages.Body(d.Page)
	if err != nil {
		return err
	}

	data := view.PageData{
		Page:       d.Page,
		Title:      h.routes.Classify(d.Page).Title,
		Navigation: d.Navigation,
		Flash:      d.Flash,
		Body:       body,
	}
	if d.Identity != nil {
		data.DisplayName = d.Identity.FullName
		if data.DisplayName == "" {
			data.DisplayName = d.Identity.Username
		}
	}
	if d.Profile != nil {
		data.DisplayName = d.Profile.DisplayName()
		data.AvatarURL = avatarURL(d.Profile.Avatar)
	}
	return c.Render(http.StatusOK, view.TemplatePage, data)
}

// avatarURL accepts inline images and http(s) or site-relative links.
func avatarURL(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "data:image/"),
		strings.HasPrefix(raw, "https://"),
		strings.HasPrefix(raw, "http://"),
		strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//"):
		return template.URL(raw)
	}
	return ""
}
