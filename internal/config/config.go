package config

import (
	"errors"
	"os"
	"strings"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/joho/godotenv"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type Config struct {
	Port           string
	DBDriver       string
	DatabaseURL    string
	JWTSecret      string
	Domain         string
	AppURL         string
	AllowedOrigins []string

	LogLevel string
	LogFile  string

	WebhookURL  string
	WebhookKind string

	CassandraHosts []string
	MongoURI       string
	MongoDBName    string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Debugf("Event ID: ENV_FILE_SKIPPED, Description: No .env file loaded: %v", err)
	}

	cfg := Config{
		Port:        getenv("PORT", "3000"),
		DBDriver:    getenv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Domain:      os.Getenv("DOMAIN"),
		AppURL:      getenv("APP_URL", "http://localhost:5173"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),
		WebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
		WebhookKind: getenv("NOTIFY_WEBHOOK_KIND", "slack"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDBName: getenv("MONGO_DB_NAME", "berai_analytics"),
	}

	cfg.AllowedOrigins = allowedOrigins(os.Getenv("CLIENT_URL"), os.Getenv("ALLOWED_ORIGINS"))
	cfg.CassandraHosts = splitList(os.Getenv("CASS_DB"))

	if cfg.DBDriver == "sqlite" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "berai.db"
	}

	return cfg
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	return nil
}

func allowedOrigins(clientURL, extra string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" {
		origins = append(origins, clientURL)
	}

	return append(origins, splitList(extra)...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
