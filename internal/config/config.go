package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port    string `toml:"port"`
	GinMode string `toml:"gin_mode"`

	DBDriver   string `toml:"db_driver"`
	DBPath     string `toml:"db_path"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`

	RedisHost     string `toml:"redis_host"`
	RedisPort     string `toml:"redis_port"`
	RedisPassword string `toml:"redis_password"`
	SessionSecret string `toml:"session_secret"`

	JWTSecret string        `toml:"jwt_secret"`
	JWTExpiry time.Duration `toml:"jwt_expiry"`

	GoogleClientID     string `toml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret"`
	GoogleRedirectURL  string `toml:"google_redirect_url"`

	FrontendURL    string   `toml:"frontend_url"`
	AllowedOrigins []string `toml:"allowed_origins"`

	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUser     string `toml:"smtp_user"`
	SMTPPassword string `toml:"smtp_password"`
	MailFrom     string `toml:"mail_from"`

	UploadDir      string        `toml:"upload_dir"`
	MaxAvatarBytes int64         `toml:"max_avatar_bytes"`
	ResetTokenTTL  time.Duration `toml:"reset_token_ttl"`

	OpenAIAPIKey string `toml:"openai_api_key"`
}

// Default returns the built-in configuration used before the file and the
// environment are applied.
func Default() *Config {
	return &Config{
		Port:           "5000",
		GinMode:        "debug",
		DBDriver:       "sqlite",
		DBPath:         "db/board.db",
		DBHost:         "localhost",
		DBPort:         "3306",
		DBUser:         "board",
		DBPassword:     "board",
		DBName:         "team_board",
		RedisPort:      "6379",
		SessionSecret:  "default-secret-key-change-me",
		JWTSecret:      "default-jwt-secret-change-me",
		JWTExpiry:      time.Hour,
		FrontendURL:    "http://localhost:3000",
		AllowedOrigins: []string{"http://localhost:3000"},
		SMTPPort:       587,
		UploadDir:      "uploads",
		MaxAvatarBytes: 5 << 20,
		ResetTokenTTL:  time.Hour,
	}
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment, in that order. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)

	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiry = parseDuration(os.Getenv("JWT_EXPIRY"), cfg.JWTExpiry)

	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID)
	cfg.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret)
	cfg.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", cfg.GoogleRedirectURL)

	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.MailFrom = getEnv("MAIL_FROM", cfg.MailFrom)

	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxAvatarBytes = int64(getEnvInt("MAX_AVATAR_BYTES", int(cfg.MaxAvatarBytes)))
	cfg.ResetTokenTTL = parseDuration(os.Getenv("RESET_TOKEN_TTL"), cfg.ResetTokenTTL)

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
}

// RedisEnabled reports whether a Redis host is configured.
func (cfg *Config) RedisEnabled() bool {
	return cfg.RedisHost != ""
}

// GoogleEnabled reports whether Google sign-in credentials are configured.
func (cfg *Config) GoogleEnabled() bool {
	return cfg.GoogleClientID != "" && cfg.GoogleClientSecret != ""
}

// MailEnabled reports whether an SMTP relay is configured.
func (cfg *Config) MailEnabled() bool {
	return cfg.SMTPHost != ""
}

func (cfg *Config) IsProduction() bool {
	return cfg.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
