package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/samerow/internal/app"
	"github.com/dkeye/samerow/internal/app/orch"
	"github.com/dkeye/samerow/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func setup(t *testing.T, origins ...string) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	cfg := &config.Config{
		Mode:           "test",
		Secret:         "test-secret",
		ReadLimit:      65536,
		PingPeriod:     54 * time.Second,
		WriteWait:      10 * time.Second,
		SendBuffer:     16,
		AllowedOrigins: origins,
		ICEServers:     []config.ICEServer{{URLs: []string{"stun:stun.example.com:3478"}}},
	}
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(nil),
		Policy:   app.DropPolicy{},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, cfg, o), o
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, r, "GET", path, nil)
}

func do(t *testing.T, r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoints(t *testing.T) {
	r, _ := setup(t)
	for _, path := range []string{"/status", "/api/status"} {
		w := get(t, r, path)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: code %d", path, w.Code)
		}
		var resp StatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Message != "Server is running" {
			t.Fatalf("%s: body %s", path, w.Body.String())
		}
	}
}

func TestClientTokenCookie(t *testing.T) {
	r, _ := setup(t)
	w := get(t, r, "/status")
	if !strings.Contains(w.Header().Get("Set-Cookie"), "SamerowSessions=") {
		t.Fatalf("missing session cookie: %v", w.Header())
	}
}

func TestRoomEndpoints(t *testing.T) {
	r, o := setup(t)

	if w := get(t, r, "/api/rooms/none"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown room: code %d", w.Code)
	}

	room := o.Rooms.GetOrCreate("r1")
	if _, _, err := room.SetMediaRef("film.mp4", nil); err != nil {
		t.Fatalf("set media: %v", err)
	}

	w := get(t, r, "/api/rooms")
	var list RoomsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Rooms) != 1 || list.Rooms[0].ID != "r1" || !list.Rooms[0].Playing {
		t.Fatalf("rooms = %+v", list)
	}

	w = get(t, r, "/api/rooms/r1")
	var one RoomResponse
	if err := json.Unmarshal(w.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if one.ID != "r1" || one.Playback.MediaRef == nil || *one.Playback.MediaRef != "film.mp4" || len(one.Members) != 0 {
		t.Fatalf("room = %+v", one)
	}
}

func TestICEServers(t *testing.T) {
	r, _ := setup(t)
	w := get(t, r, "/api/ice-servers")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "stun:stun.example.com:3478") {
		t.Fatalf("ice: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setup(t)
	w := get(t, r, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "samerow_sessions") {
		t.Fatalf("metrics: %d", w.Code)
	}
}

func TestSignalEndpointUpgrades(t *testing.T) {
	r, o := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var welcome map[string]any
	if err := ws.ReadJSON(&welcome); err != nil {
		t.Fatalf("read: %v", err)
	}
	if welcome["type"] != "welcome" || welcome["selfId"] == "" {
		t.Fatalf("welcome = %v", welcome)
	}
	if o.Registry.Count() != 1 {
		t.Fatalf("sessions = %d", o.Registry.Count())
	}
}

func TestCORSAnyOrigin(t *testing.T) {
	r, _ := setup(t)
	origin := map[string]string{"Origin": "http://localhost:5173"}

	w := do(t, r, "GET", "/api/status", origin)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("get: code %d acao %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	preflight := map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	}
	w = do(t, r, "OPTIONS", "/api/ice-servers", preflight)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: code %d acao %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "GET") {
		t.Fatalf("allow methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSAllowList(t *testing.T) {
	r, _ := setup(t, "https://app.example")

	w := do(t, r, "GET", "/api/rooms", map[string]string{"Origin": "https://app.example"})
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("allowed: code %d acao %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = do(t, r, "GET", "/api/rooms", map[string]string{"Origin": "https://evil.example"})
	if w.Code != http.StatusForbidden || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign: code %d acao %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
}
