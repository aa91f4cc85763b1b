// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds every setting the server, CLI and background jobs read at startup.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	APIKey         string // expected value of the apikey header; empty disables the check
	PublicOrigin   string // origin used for invoice deep links
	DisplayLocale  string
	TimeZone       *time.Location
	LogEnv         string

	AIProvider   string // "gemini" or "openai"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	SearchAPIURL string
	SearchAPIKey string

	RedisURL string
	MongoURI string
	MongoDB  string

	ChatRatePerMinute int
}

// Load reads .env (if present) and the process environment.
// All invalid or missing required values are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var errs []error

	cfg := &Config{
		DatabaseURL:    get("DATABASE_URL", ""),
		ServerPort:     get("SERVER_PORT", "8080"),
		AllowedOrigins: get("ALLOWED_ORIGINS", ""),
		JWTSecret:      get("JWT_SECRET", ""),
		APIKey:         get("API_KEY", ""),
		PublicOrigin:   strings.TrimRight(get("PUBLIC_ORIGIN", "http://localhost:5173"), "/"),
		DisplayLocale:  get("DISPLAY_LOCALE", "en-IN"),
		LogEnv:         get("LOG_ENV", "development"),
		AIProvider:     strings.ToLower(get("AI_PROVIDER", "gemini")),
		GeminiAPIKey:   get("GEMINI_API_KEY", ""),
		GeminiModel:    get("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   get("OPENAI_API_KEY", ""),
		OpenAIModel:    get("OPENAI_MODEL", "gpt-4o"),
		SearchAPIURL:   get("SEARCH_API_URL", "https://api.tavily.com/search"),
		SearchAPIKey:   get("SEARCH_API_KEY", ""),
		RedisURL:       get("REDIS_URL", ""),
		MongoURI:       get("MONGO_URI", ""),
		MongoDB:        get("MONGO_DB", "printshop"),
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch cfg.AIProvider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be gemini or openai, got %q", cfg.AIProvider))
	}

	loc, err := time.LoadLocation(get("TIME_ZONE", "Asia/Kolkata"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TIME_ZONE: %w", err))
		loc = time.UTC
	}
	cfg.TimeZone = loc

	rate, err := strconv.Atoi(get("CHAT_RATE_PER_MIN", "20"))
	if err != nil || rate <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_PER_MIN must be a positive integer"))
		rate = 20
	}
	cfg.ChatRatePerMinute = rate

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}
