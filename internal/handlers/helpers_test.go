package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/database"
	"github.com/yukikurage/team-board-api/internal/mail"
	"github.com/yukikurage/team-board-api/internal/middleware"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testFrontendURL = "http://frontend.test"

type stubMailer struct {
	sent []mail.Message
}

func (m *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stubOAuth struct {
	profile *services.GoogleProfile
	err     error
}

func (o *stubOAuth) AuthCodeURL(state string) string {
	return "https://accounts.google.test/auth?state=" + state
}

func (o *stubOAuth) Exchange(ctx context.Context, code string) (*services.GoogleProfile, error) {
	return o.profile, o.err
}

type stubGenerator struct {
	tasks []services.GeneratedTask
}

func (g *stubGenerator) GenerateTasksFromText(ctx context.Context, text string) ([]services.GeneratedTask, error) {
	return g.tasks, nil
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	jwt         services.JWTService
	authService *services.AuthService
	mailer      *stubMailer
	oauth       *stubOAuth
	generator   *stubGenerator
	uploadDir   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	db, err := database.OpenSQLite(":memory:", &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	env := &testEnv{
		db:        db,
		jwt:       services.NewJWTService("test-secret", time.Hour),
		mailer:    &stubMailer{},
		oauth:     &stubOAuth{},
		generator: &stubGenerator{},
		uploadDir: t.TempDir(),
	}

	userRepo := repository.NewUserRepository(db)
	boardService := services.NewBoardService(
		repository.NewColumnRepository(db),
		repository.NewTaskRepository(db),
		repository.NewBoardRepository(db),
		env.generator,
		nil,
		nil,
	)
	env.authService = services.NewAuthService(userRepo, env.jwt, services.AuthServiceConfig{
		OAuth:       env.oauth,
		Mailer:      env.mailer,
		FrontendURL: testFrontendURL,
	})
	userService := services.NewUserService(userRepo)

	taskHandler := NewTaskHandler(boardService)
	columnHandler := NewColumnHandler(boardService)
	authHandler := NewAuthHandler(env.authService, testFrontendURL)
	userHandler := NewUserHandler(userService)
	profileHandler := NewProfileHandler(userService, env.uploadDir, 1024)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/health", Health)

	requireAuth := middleware.RequireAuth(env.jwt, nil)
	api := r.Group("/api")
	{
		api.GET("/board", columnHandler.GetBoard)
		api.POST("/columns", columnHandler.CreateColumn)
		api.PUT("/columns/order", columnHandler.ReorderColumns)
		api.DELETE("/columns/:id", columnHandler.DeleteColumn)

		api.GET("/tasks", taskHandler.ListTasks)
		api.POST("/tasks", taskHandler.CreateTask)
		api.POST("/tasks/generate", taskHandler.GenerateTasks)
		api.GET("/tasks/:id", taskHandler.GetTask)
		api.PUT("/tasks/:id", taskHandler.UpdateTask)
		api.PUT("/tasks/:id/move", taskHandler.MoveTask)
		api.DELETE("/tasks/:id", taskHandler.DeleteTask)
		api.GET("/team-tasks", taskHandler.ListTeamTasks)

		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/logout", requireAuth, authHandler.Logout)
		api.GET("/protected", requireAuth, authHandler.Protected)
		api.GET("/google-login", authHandler.GoogleLogin)
		api.GET("/google-auth-callback", authHandler.GoogleCallback)
		api.POST("/forgot-password", authHandler.ForgotPassword)
		api.POST("/reset-password", authHandler.ResetPassword)

		api.GET("/users", userHandler.ListUsers)
		api.POST("/users", userHandler.CreateUser)
		api.GET("/users/:id", userHandler.GetUser)
		api.PUT("/users/:id", userHandler.UpdateUser)
		api.DELETE("/users/:id", userHandler.DeleteUser)

		api.GET("/profile", requireAuth, profileHandler.GetProfile)
		api.PUT("/profile", requireAuth, profileHandler.UpdateProfile)
		api.PUT("/profile/password", requireAuth, profileHandler.ChangePassword)
		api.POST("/profile/avatar", requireAuth, profileHandler.UploadAvatar)
	}
	env.router = r

	return env
}

// request sends a JSON request. A non-empty token is sent as a bearer token.
func (env *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a local account and returns its id and token.
func (env *testEnv) registerAndLogin(t *testing.T, username string) (uint64, string) {
	t.Helper()

	ctx := context.Background()
	user, err := env.authService.Register(ctx, services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	token, _, err := env.authService.Login(ctx, services.LoginInput{Username: username, Password: "password123"})
	require.NoError(t, err)
	return user.ID, token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
