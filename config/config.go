package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	AllowedOrigins string
	BodyLimitBytes int
	RateLimitMax   int
	RateLimitWin   time.Duration

	// Database
	DBDriver    string // "postgres", "mysql" or "sqlite"
	DatabaseURL string

	// Scheduling
	ConflictWindow time.Duration

	// Agent / LLM
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeout        time.Duration
	ConfirmationStore string        // "memory" or "database"
	ConfirmationTTL   time.Duration // 0 => proposals never expire

	JWTSecret string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg(".env file not found, using environment variables")
	}

	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	apiKey := os.Getenv("LLM_API_KEY")
	if strings.TrimSpace(apiKey) == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if strings.TrimSpace(jwtSecret) == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}

	return &Config{
		Port:              envString("PORT", "8080"),
		AllowedOrigins:    envString("ALLOWED_ORIGINS", "*"),
		BodyLimitBytes:    bodyLimit,
		RateLimitMax:      envInt("RATE_LIMIT_MAX", 60),
		RateLimitWin:      time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		DBDriver:          strings.ToLower(envString("DB_DRIVER", "postgres")),
		DatabaseURL:       databaseURL(),
		ConflictWindow:    time.Duration(envInt("CONFLICT_WINDOW_MINUTES", 60)) * time.Minute,
		LLMBaseURL:        envString("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMAPIKey:         apiKey,
		LLMModel:          envString("LLM_MODEL", "openai/gpt-4o-mini"),
		LLMTimeout:        time.Duration(envInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		ConfirmationStore: strings.ToLower(envString("CONFIRMATION_STORE", "memory")),
		ConfirmationTTL:   time.Duration(envInt("CONFIRMATION_TTL_SECONDS", 0)) * time.Second,
		JWTSecret:         jwtSecret,
		LogLevel:          envString("LOG_LEVEL", "info"),
		LogFormat:         envString("LOG_FORMAT", "json"),
	}
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN from the
// discrete DB_* variables for the configured driver.
func databaseURL() string {
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	host := envString("DB_HOST", "db")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")

	if strings.EqualFold(os.Getenv("DB_DRIVER"), "sqlite") {
		return envString("DB_NAME", "interview-scheduler") + ".db?_pragma=foreign_keys(1)"
	}
	if strings.EqualFold(os.Getenv("DB_DRIVER"), "mysql") {
		port := envString("DB_PORT", "3306")
		return user + ":" + password + "@tcp(" + host + ":" + port + ")/" + name + "?charset=utf8mb4&parseTime=True&loc=UTC"
	}
	port := envString("DB_PORT", "5432")
	return "host=" + host + " user=" + user + " password=" + password + " dbname=" + name +
		" port=" + port + " sslmode=disable TimeZone=UTC"
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
