// Package view renders the server-side pages of the web front.
package view

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed pages/*.html
var pagesFS embed.FS

// Template names.
const (
	TemplatePage    = "page"
	TemplateDenied  = "denied"
	TemplateLogin   = "login"
	TemplateRecover = "recover"
)

// PageData is rendered into the granted layout.
type PageData struct {
	Page        string
	Title       string
	DisplayName string
	AvatarURL   template.URL
	Navigation  []domain.NavEntry
	Flash       bool
	Body        template.HTML
}

// DeniedData is rendered into the blocking modal.
type DeniedData struct {
	Page     string
	Title    string
	Message  string
	HomeHref string
}

// LoginData is rendered into the login form.
type LoginData struct {
	Username string
	Redirect string
	Remember bool
	Error    string
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// Pages serves page bodies. Bodies are trusted operator content.
type Pages struct {
	fsys fs.FS
}

// NewPages reads bodies from dir, or from the embedded defaults when dir is empty.
func NewPages(dir string) (*Pages, error) {
	if dir == "" {
		sub, err := fs.Sub(pagesFS, "pages")
		if err != nil {
			return nil, err
		}
		return &Pages{fsys: sub}, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("pages dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pages dir: %s is not a directory", dir)
	}
	return &Pages{fsys: os.DirFS(dir)}, nil
}

// Body returns the content of page. A page without a body file gets a placeholder.
func (p *Pages) Body(page string) (template.HTML, error) {
	data, err := fs.ReadFile(p.fsys, page+".html")
	if errors.Is(err, fs.ErrNotExist) {
		return template.HTML(`<p class="em-construcao">Conteúdo em construção.</p>`), nil
	}
	if err != nil {
		return "", fmt.Errorf("read page %s: %w", page, err)
	}
	return template.HTML(data), nil
}
