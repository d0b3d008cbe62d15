package view

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

func TestRenderer_PageCarriesAccessMarkerAndLocks(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	var buf bytes.Buffer
	err = r.Render(&buf, TemplatePage, PageData{
		Page:        "estoque",
		Title:       "Estoque",
		DisplayName: "Alice Souza",
		Flash:       true,
		Navigation: []domain.NavEntry{
			{Label: "Estoque", Href: "/estoque.html"},
			{Label: "Financeiro", Href: "#", Locked: true},
		},
		Body: "<p>conteúdo</p>",
	}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := buf.String()
	for _, want := range []string{`class="acesso-liberado"`, `href="/estoque.html"`, `class="bloqueado"`, "<p>conteúdo</p>", "Login realizado com sucesso"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRenderer_DeniedHasNoPageContent(t *testing.T) {
	r, _ := NewRenderer()

	var buf bytes.Buffer
	if err := r.Render(&buf, TemplateDenied, DeniedData{
		Page: "financeiro", Title: "Acesso negado", Message: "Você não tem permissão.", HomeHref: "/index.html",
	}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "acesso-liberado") {
		t.Fatalf("denied page must not carry the access marker")
	}
	if !strings.Contains(html, `href="/index.html"`) || !strings.Contains(html, "Voltar ao início") {
		t.Fatalf("expected a single back-to-home action, got %s", html)
	}
}

func TestRenderer_LoginEscapesRedirect(t *testing.T) {
	r, _ := NewRenderer()

	var buf bytes.Buffer
	_ = r.Render(&buf, TemplateLogin, LoginData{Redirect: `/estoque.html"><script>`}, nil)
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("redirect must be escaped")
	}
}

func TestPages_EmbeddedAndDirectory(t *testing.T) {
	embedded, err := NewPages("")
	if err != nil {
		t.Fatalf("NewPages: %v", err)
	}
	if body, _ := embedded.Body("chat"); !strings.Contains(string(body), "chat-usuarios") {
		t.Fatalf("expected embedded chat page")
	}
	if body, _ := embedded.Body("inexistente"); !strings.Contains(string(body), "em construção") {
		t.Fatalf("expected placeholder, got %q", body)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "estoque.html"), []byte("<table></table>"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	custom, err := NewPages(dir)
	if err != nil {
		t.Fatalf("NewPages(dir): %v", err)
	}
	if body, _ := custom.Body("estoque"); body != "<table></table>" {
		t.Fatalf("unexpected body %q", body)
	}

	if _, err := NewPages(filepath.Join(dir, "estoque.html")); err == nil {
		t.Fatalf("expected error for non-directory")
	}
}
