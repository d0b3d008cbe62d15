package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", zerolog.Nop(), WithTimeout(2*time.Second))
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "pwd" {
			t.Errorf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"id": 7, "username": "alice", "role": "user", "fullname": "Alice Souza"}`))
	})

	id, err := c.Login(context.Background(), "alice", "pwd")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	want := domain.Identity{Username: "alice", UserID: "7", Role: "user", FullName: "Alice Souza"}
	if id != want {
		t.Fatalf("expected %+v, got %+v", want, id)
	}
}

func TestLogin_ErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Usuário ou senha inválidos"}`))
	})

	_, err := c.Login(context.Background(), "alice", "bad")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if !domain.IsStatus(err) {
		t.Fatalf("expected status kind, got %s", domain.BackendKind(err))
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "credenciais inválidas"}`))
	})

	_, err := c.Login(context.Background(), "alice", "bad")
	if domain.StatusCode(err) != http.StatusUnauthorized || !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected 401 invalid credentials, got %v", err)
	}
}

func TestGetProfile_NotFoundIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/joão" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetProfile(context.Background(), "joão")
	if !domain.IsStatus(err) || domain.StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestGetPermissions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/permissoes/7" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`["estoque", "Vendas"]`))
	})

	perms, err := c.GetPermissions(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetPermissions returned error: %v", err)
	}
	if len(perms) != 2 || perms[0] != "estoque" {
		t.Fatalf("unexpected permissions: %v", perms)
	}
}

func TestGetPermissions_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	})

	_, err := c.GetPermissions(context.Background(), "7")
	if domain.BackendKind(err) != domain.KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, zerolog.Nop())
	err := c.Heartbeat(context.Background(), "7")
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestHeartbeatAndSend_Bodies(t *testing.T) {
	var (
		mu  sync.Mutex
		got []map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["path"] = r.URL.Path
		mu.Lock()
		got = append(got, body)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	if err := c.Heartbeat(context.Background(), "7"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if err := c.Send(context.Background(), "7", "9", "oi"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0]["path"] != "/chat/heartbeat" || got[0]["usuarioID"] != "7" {
		t.Errorf("unexpected heartbeat: %v", got[0])
	}
	if got[1]["path"] != "/chat/enviar" || got[1]["RemetenteID"] != "7" || got[1]["DestinatarioID"] != "9" || got[1]["Mensagem"] != "oi" {
		t.Errorf("unexpected send: %v", got[1])
	}
}

func TestRosterAndMessages_Decode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/usuarios":
			if r.URL.Query().Get("meuID") != "7" {
				t.Errorf("missing meuID")
			}
			_, _ = w.Write([]byte(`[{"id": 9, "nome": "Bruno", "online": true, "ultimaAtividade": "2026-03-01 10:00:00", "naoLidas": 2}]`))
		case "/chat/mensagens":
			q := r.URL.Query()
			if q.Get("meuID") != "7" || q.Get("usuarioID") != "9" {
				t.Errorf("unexpected query %v", q)
			}
			_, _ = w.Write([]byte(`[{"remetenteID": "9", "destinatarioID": 7, "mensagem": "olá", "dataEnvio": "2026-03-01T10:01:00Z", "lida": false}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	roster, err := c.Roster(context.Background(), "7")
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 1 || roster[0].UserID != "9" || !roster[0].Online || roster[0].Unread != 2 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
	if roster[0].LastActivity.IsZero() {
		t.Fatalf("expected last activity to be parsed")
	}

	msgs, err := c.Messages(context.Background(), "7", "9")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderID != "9" || msgs[0].RecipientID != "7" || msgs[0].Text != "olá" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestServerError_CarriesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "banco indisponível"}`))
	})

	_, err := c.Roster(context.Background(), "7")
	var be *domain.BackendError
	if !errors.As(err, &be) || be.Status != http.StatusInternalServerError || be.Detail != "banco indisponível" {
		t.Fatalf("unexpected error: %#v", err)
	}
}
