package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-board-api/internal/config"
	"github.com/yukikurage/team-board-api/internal/database"
	"github.com/yukikurage/team-board-api/internal/handlers"
	"github.com/yukikurage/team-board-api/internal/metrics"
	"github.com/yukikurage/team-board-api/internal/middleware"
	"github.com/yukikurage/team-board-api/internal/realtime"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testOrigin = "http://app.test"

func setupRouter(t *testing.T) (*gin.Engine, *realtime.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	db, err := database.OpenSQLite(":memory:", &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	cfg.AllowedOrigins = []string{testOrigin}

	m := metrics.New()
	hub := realtime.NewHub(cfg.AllowedOrigins)
	jwtService := services.NewJWTService("test-secret", time.Hour)
	userRepo := repository.NewUserRepository(db)
	boardService := services.NewBoardService(
		repository.NewColumnRepository(db),
		repository.NewTaskRepository(db),
		repository.NewBoardRepository(db),
		nil,
		hub,
		m,
	)
	authService := services.NewAuthService(userRepo, jwtService, services.AuthServiceConfig{FrontendURL: cfg.FrontendURL})
	userService := services.NewUserService(userRepo)

	store, err := NewSessionStore(cfg)
	require.NoError(t, err)

	r := gin.New()
	Setup(r, Handlers{
		Task:    handlers.NewTaskHandler(boardService),
		Column:  handlers.NewColumnHandler(boardService),
		Auth:    handlers.NewAuthHandler(authService, cfg.FrontendURL),
		User:    handlers.NewUserHandler(userService),
		Profile: handlers.NewProfileHandler(userService, cfg.UploadDir, cfg.MaxAvatarBytes),
	}, Options{
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
		SessionStore:   store,
		RequireAuth:    middleware.RequireAuth(jwtService, nil),
		Metrics:        m,
		Hub:            hub,
	})
	return r, hub, cfg.UploadDir
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetup_HealthAndMetrics(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/api/columns", strings.NewReader(`{"title":"Review"}`)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `team_board_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, "team_board_board_operations_total")
}

func TestSetup_CORS(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/board", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetup_ProtectedRoutes(t *testing.T) {
	r, _, _ := setupRouter(t)

	for _, path := range []string{"/api/profile", "/api/protected"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/board", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetup_ServesUploads(t *testing.T) {
	r, _, uploadDir := setupRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(uploadDir, "avatar-1.png"), []byte("png"), 0o644))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/uploads/avatar-1.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetup_BoardEventsReachWebsocketClients(t *testing.T) {
	r, hub, _ := setupRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/board/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var event realtime.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "connected", event.Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(server.URL+"/api/columns", "application/json", strings.NewReader(`{"title":"Review"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, realtime.Event{Type: "board_changed", Entity: "column", Action: "created", ID: "review"}, event)
}

func TestNewSessionStore(t *testing.T) {
	cfg := config.Default()
	store, err := NewSessionStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)

	mr := miniredis.RunT(t)
	cfg.RedisHost = mr.Host()
	cfg.RedisPort = mr.Port()
	store, err = NewSessionStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
}
