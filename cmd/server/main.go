package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yukikurage/team-board-api/internal/config"
	"github.com/yukikurage/team-board-api/internal/database"
	"github.com/yukikurage/team-board-api/internal/handlers"
	"github.com/yukikurage/team-board-api/internal/mail"
	"github.com/yukikurage/team-board-api/internal/metrics"
	"github.com/yukikurage/team-board-api/internal/middleware"
	"github.com/yukikurage/team-board-api/internal/realtime"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/revocation"
	"github.com/yukikurage/team-board-api/internal/routes"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/validation"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "team-board",
	Short: "Team board API server",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		return database.Migrate()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default columns on an empty board",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		if err := database.Migrate(); err != nil {
			return err
		}

		boardService := newBoardService(nil, nil, nil)
		created, err := boardService.SeedDefaultColumns(cmd.Context())
		if err != nil {
			return err
		}
		log.Printf("Seeded %d columns", created)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// bootstrap loads .env and the configuration, then connects to the database.
func bootstrap() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBoardService(generator services.TaskGenerator, notifier services.BoardNotifier, observer services.OperationObserver) *services.BoardService {
	db := database.GetDB()
	return services.NewBoardService(
		repository.NewColumnRepository(db),
		repository.NewTaskRepository(db),
		repository.NewBoardRepository(db),
		generator,
		notifier,
		observer,
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		return err
	}
	validation.Register()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it logout cannot revoke tokens early
	var denylist *revocation.Store
	if cfg.RedisEnabled() {
		client, err := revocation.NewClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		denylist = revocation.NewStore(client)
		log.Println("Redis connection established")
	}

	m := metrics.New()
	hub := realtime.NewHub(cfg.AllowedOrigins)
	if err := m.RegisterGauge("websocket_clients", "Connected board websocket clients.", func() float64 {
		return float64(hub.ClientCount())
	}); err != nil {
		return err
	}

	// Initialize AI service
	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authConfig := services.AuthServiceConfig{
		FrontendURL: cfg.FrontendURL,
		ResetTTL:    cfg.ResetTokenTTL,
	}
	if cfg.MailEnabled() {
		authConfig.Mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}
	if cfg.GoogleEnabled() {
		authConfig.OAuth = services.NewGoogleOAuthProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	var requireAuth gin.HandlerFunc
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if denylist != nil {
		authConfig.Revoker = denylist
		requireAuth = middleware.RequireAuth(jwtService, denylist)
	} else {
		requireAuth = middleware.RequireAuth(jwtService, nil)
	}

	userRepo := repository.NewUserRepository(database.GetDB())
	boardService := newBoardService(generator, hub, m)
	authService := services.NewAuthService(userRepo, jwtService, authConfig)
	userService := services.NewUserService(userRepo)

	store, err := routes.NewSessionStore(cfg)
	if err != nil {
		return err
	}

	r := gin.Default()
	routes.Setup(r, routes.Handlers{
		Task:    handlers.NewTaskHandler(boardService),
		Column:  handlers.NewColumnHandler(boardService),
		Auth:    handlers.NewAuthHandler(authService, cfg.FrontendURL),
		User:    handlers.NewUserHandler(userService),
		Profile: handlers.NewProfileHandler(userService, cfg.UploadDir, cfg.MaxAvatarBytes),
	}, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
		SessionStore:   store,
		RequireAuth:    requireAuth,
		Metrics:        m,
		Hub:            hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
