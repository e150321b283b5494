package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/lobbyrelay/internal/adapters/signal"
	"github.com/dkeye/lobbyrelay/internal/config"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/lobbyd"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *lobbyd.Lobbies) {
	t.Helper()
	lobbies := lobbyd.NewLobbies(0)
	ctl := signal.NewController(lobbyd.NewRegistry(), lobbies, nil, signal.Options{})
	cfg := &config.ServerConfig{Mode: "test", Secret: "test-secret"}
	return SetupRouter(context.Background(), cfg, ctl, lobbies), lobbies
}

func get(r http.Handler, path string, mod func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListLobbies(t *testing.T) {
	r, lobbies := newTestRouter(t)

	w := get(r, "/api/lobbies", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"lobbies":[]}` {
		t.Fatalf("empty list = %d %s", w.Code, w.Body)
	}

	pub, _, _ := lobbies.Create("a", domain.Public, 4)
	lobbies.Create("b", domain.Private, 4)

	w = get(r, "/api/lobbies", nil)
	var body struct {
		Lobbies []domain.LobbyInfo `json:"lobbies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Lobbies) != 1 || body.Lobbies[0].ID != pub.ID || body.Lobbies[0].Visibility != domain.Public {
		t.Fatalf("lobbies = %+v", body.Lobbies)
	}
}

func TestGetLobby(t *testing.T) {
	r, lobbies := newTestRouter(t)
	friends, _, _ := lobbies.Create("a", domain.FriendsOnly, 3)
	hidden, _, _ := lobbies.Create("b", domain.Invisible, 3)

	w := get(r, "/api/lobbies/"+string(friends.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var info domain.LobbyInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Owner != "a" || info.MaxMembers != 3 || info.Visibility != domain.FriendsOnly {
		t.Fatalf("info = %+v", info)
	}

	if w := get(r, "/api/lobbies/"+string(hidden.ID), nil); w.Code != http.StatusNotFound {
		t.Fatalf("invisible lobby code = %d", w.Code)
	}
	if w := get(r, "/api/lobbies/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing lobby code = %d", w.Code)
	}
}

func TestClientToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/whoami", func(req *http.Request) { req.Header.Set(PeerTokenHeader, "p1") })
	if w.Body.String() != `{"peer":"p1"}` {
		t.Fatalf("header token = %s", w.Body)
	}

	w = get(r, "/api/whoami", nil)
	var first struct{ Peer string }
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil || first.Peer == "" {
		t.Fatalf("generated token = %s, %v", w.Body, err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}

	w = get(r, "/api/whoami", func(req *http.Request) {
		for _, c := range cookies {
			req.AddCookie(c)
		}
	})
	var second struct{ Peer string }
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil || second.Peer != first.Peer {
		t.Fatalf("session token = %s, want %s", w.Body, first.Peer)
	}
}
