package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/config"
	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/handlers"
	"github.com/yukikurage/team-board-api/internal/metrics"
	"github.com/yukikurage/team-board-api/internal/realtime"
)

// Handlers groups the request handlers mounted under /api.
type Handlers struct {
	Task    *handlers.TaskHandler
	Column  *handlers.ColumnHandler
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Profile *handlers.ProfileHandler
}

// Options carries the router-wide collaborators. Metrics and Hub may be nil.
type Options struct {
	AllowedOrigins []string
	UploadDir      string
	SessionStore   sessions.Store
	RequireAuth    gin.HandlerFunc
	Metrics        *metrics.Metrics
	Hub            *realtime.Hub
}

// NewSessionStore returns a Redis-backed session store when Redis is
// configured and a signed cookie store otherwise.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisEnabled() {
		rs, err := redisStore.NewStore(
			10,    // pool size
			"tcp", // network type
			cfg.RedisHost+":"+cfg.RedisPort,
			"", // username (empty for default user)
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Setup mounts middleware and every route on r.
func Setup(r *gin.Engine, h Handlers, opts Options) {
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	r.Use(sessions.Sessions(constants.SessionCookieName, opts.SessionStore))

	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	r.GET("/health", handlers.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	requireAuth := opts.RequireAuth

	api := r.Group("/api")
	{
		// Board (public)
		api.GET("/board", h.Column.GetBoard)
		if opts.Hub != nil {
			api.GET("/board/ws", opts.Hub.ServeWS)
		}
		api.POST("/columns", h.Column.CreateColumn)
		api.PUT("/columns/order", h.Column.ReorderColumns)
		api.DELETE("/columns/:id", h.Column.DeleteColumn)

		// Tasks (public)
		api.GET("/tasks", h.Task.ListTasks)
		api.POST("/tasks", h.Task.CreateTask)
		api.POST("/tasks/generate", h.Task.GenerateTasks)
		api.GET("/tasks/:id", h.Task.GetTask)
		api.PUT("/tasks/:id", h.Task.UpdateTask)
		api.PUT("/tasks/:id/move", h.Task.MoveTask)
		api.DELETE("/tasks/:id", h.Task.DeleteTask)
		api.GET("/team-tasks", h.Task.ListTeamTasks)

		// Auth
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)
		api.POST("/logout", requireAuth, h.Auth.Logout)
		api.GET("/protected", requireAuth, h.Auth.Protected)
		api.GET("/google-login", h.Auth.GoogleLogin)
		api.GET("/google-auth-callback", h.Auth.GoogleCallback)
		api.POST("/forgot-password", h.Auth.ForgotPassword)
		api.POST("/reset-password", h.Auth.ResetPassword)

		// Team members (public)
		api.GET("/users", h.User.ListUsers)
		api.POST("/users", h.User.CreateUser)
		api.GET("/users/:id", h.User.GetUser)
		api.PUT("/users/:id", h.User.UpdateUser)
		api.DELETE("/users/:id", h.User.DeleteUser)

		// Profile (protected)
		profile := api.Group("/profile")
		profile.Use(requireAuth)
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("", h.Profile.UpdateProfile)
			profile.PUT("/password", h.Profile.ChangePassword)
			profile.POST("/avatar", h.Profile.UploadAvatar)
		}
	}
}
