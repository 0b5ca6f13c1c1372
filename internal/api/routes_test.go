package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/ws"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:         "production",
		FrameRateHz:         60,
		SnapshotEveryFrames: 2,
		SessionTTLMinutes:   60,
		IdleTimeoutSeconds:  300,
		LeaderboardSize:     10,
		JWTSecret:           "test-secret",
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go hub.Run(ctx)
	mgr := game.NewSessionManager(nil, nil, cfg)
	t.Cleanup(func() {
		mgr.Shutdown()
		mgr.WaitReports()
		cancel()
	})

	router := gin.New()
	SetupRoutes(router, nil, nil, cfg, mgr, ws.NewHandler(hub, mgr, cfg))
	return router
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func login(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	w, body := do(t, r, http.MethodPost, "/api/v1/auth/guest", "", map[string]string{"display_name": name})
	if w.Code != http.StatusOK {
		t.Fatalf("guest login: %d %s", w.Code, w.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("guest login returned no token: %v", body)
	}
	return token
}

func TestHealthAndConfig(t *testing.T) {
	r := newTestRouter(t)

	if w, body := do(t, r, http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: %d %v", w.Code, body)
	}
	if w, body := do(t, r, http.MethodGet, "/api/v1/ready", "", nil); w.Code != http.StatusOK || body["ready"] != true {
		t.Errorf("ready without stores: %d %v", w.Code, body)
	}

	w, body := do(t, r, http.MethodGet, "/api/v1/config", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("config: %d", w.Code)
	}
	counts, _ := body["allowed_ball_counts"].([]interface{})
	if len(counts) != 4 {
		t.Errorf("allowed_ball_counts = %v", body["allowed_ball_counts"])
	}
	board, _ := body["board"].(map[string]interface{})
	if board["width"] != float64(320) {
		t.Errorf("board = %v", board)
	}
}

func TestGuestLoginAndProfile(t *testing.T) {
	r := newTestRouter(t)

	if w, _ := do(t, r, http.MethodPost, "/api/v1/auth/guest", "", map[string]string{"display_name": "this name is far too long to be accepted here"}); w.Code != http.StatusBadRequest {
		t.Errorf("long name: %d, want 400", w.Code)
	}

	token := login(t, r, "  ann  ")
	w, body := do(t, r, http.MethodGet, "/api/v1/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	player, _ := body["player"].(map[string]interface{})
	if player["display_name"] != "ann" {
		t.Errorf("display_name = %v, want trimmed ann", player["display_name"])
	}

	if w, _ := do(t, r, http.MethodGet, "/api/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me without token: %d, want 401", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/v1/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me with bad token: %d, want 401", w.Code)
	}

	w, body = do(t, r, http.MethodGet, "/api/v1/me/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
	if list, _ := body["sessions"].([]interface{}); len(list) != 0 {
		t.Errorf("history without a database = %v, want empty", body["sessions"])
	}

	if w, _ := do(t, r, http.MethodPost, "/api/v1/auth/guest", "", nil); w.Code != http.StatusOK {
		t.Errorf("guest login without a body should generate a name: %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)
	ann := login(t, r, "ann")
	bob := login(t, r, "bob")

	if w, _ := do(t, r, http.MethodPost, "/api/v1/sessions", ann, map[string]int{"balls": 4}); w.Code != http.StatusBadRequest {
		t.Errorf("create with 4 balls: %d, want 400", w.Code)
	}

	w, body := do(t, r, http.MethodPost, "/api/v1/sessions", ann, map[string]int{"balls": 3})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	token, _ := body["session_token"].(string)
	if body["ws_path"] != "/api/v1/sessions/"+token+"/ws" {
		t.Errorf("ws_path = %v", body["ws_path"])
	}
	snap, _ := body["snapshot"].(map[string]interface{})
	if snap["status"] != "READY" || snap["total_balls"] != float64(3) {
		t.Errorf("new session snapshot = %v", snap)
	}

	if w, _ := do(t, r, http.MethodPost, "/api/v1/sessions", ann, nil); w.Code != http.StatusConflict {
		t.Errorf("second create: %d, want 409", w.Code)
	}

	base := "/api/v1/sessions/" + token
	if w, _ := do(t, r, http.MethodPost, base+"/press", bob, nil); w.Code != http.StatusForbidden {
		t.Errorf("press by another player: %d, want 403", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, base+"/configure", ann, map[string]int{"balls": 5}); w.Code != http.StatusConflict {
		t.Errorf("configure twice: %d, want 409", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, base+"/press", ann, nil); w.Code != http.StatusOK {
		t.Errorf("press: %d", w.Code)
	}
	w, body = do(t, r, http.MethodPost, base+"/release", ann, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("release: %d %s", w.Code, w.Body.String())
	}
	snap, _ = body["snapshot"].(map[string]interface{})
	if snap["status"] != "BALL_IN_FLIGHT" || snap["balls_remaining"] != float64(2) {
		t.Errorf("after release = %v", snap)
	}
	if w, _ := do(t, r, http.MethodPost, base+"/release", ann, nil); w.Code != http.StatusConflict {
		t.Errorf("release in flight: %d, want 409", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, base+"/jump", ann, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown action: %d, want 404", w.Code)
	}

	if w, _ := do(t, r, http.MethodGet, base, bob, nil); w.Code != http.StatusOK {
		t.Errorf("spectator read: %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, base+"/history", ann, nil); w.Code != http.StatusOK {
		t.Errorf("history: %d", w.Code)
	}

	if w, _ := do(t, r, http.MethodDelete, base, bob, nil); w.Code != http.StatusForbidden {
		t.Errorf("delete by another player: %d, want 403", w.Code)
	}
	if w, _ := do(t, r, http.MethodDelete, base, ann, nil); w.Code != http.StatusOK {
		t.Errorf("delete: %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, base, ann, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d, want 404", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/v1/sessions", ann, nil); w.Code != http.StatusCreated {
		t.Errorf("create after abandon: %d, want 201", w.Code)
	}
}

func TestStoreBackedRoutesDegrade(t *testing.T) {
	r := newTestRouter(t)

	if w, _ := do(t, r, http.MethodGet, "/api/v1/leaderboard", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("leaderboard without redis: %d, want 503", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/v1/admin/sessions", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("admin without a database: %d, want 503", w.Code)
	}
}

func TestPublicPlayerHistory(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/api/v1/player/7/history", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d %s", w.Code, w.Body.String())
	}
	if sessions, ok := body["sessions"].([]interface{}); !ok || len(sessions) != 0 {
		t.Errorf("sessions = %v, want empty list", body["sessions"])
	}

	if w, _ := do(t, r, http.MethodGet, "/api/v1/player/abc/history", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: %d, want 400", w.Code)
	}
}
