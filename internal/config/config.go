package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat relay.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	GroqAPIURL      string
	GroqAPIKey      string
	GroqModel       string
	GroqTemperature float64
	UpstreamTimeout time.Duration

	DatabaseURL string
	WebsiteURL  string

	CacheMaxSize int
	ChatWindow   int

	MemoryFile          string
	MemoryFlushInterval time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", defaultBindAddr()),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "lacobot"),
		AllowAnyOrigin:      false,
		GroqAPIURL:          envOrDefault("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GroqAPIKey:          envTrimmed("GROQ_API_KEY"),
		GroqModel:           envOrDefault("GROQ_MODEL", "gemma2-9b-it"),
		GroqTemperature:     0.7,
		UpstreamTimeout:     60 * time.Second,
		DatabaseURL:         envTrimmed("DATABASE_URL"),
		WebsiteURL:          envOrDefault("WEBSITE_URL", "https://www.lacopro.cl"),
		CacheMaxSize:        100,
		ChatWindow:          10,
		MemoryFile:          envOrDefault("MEMORY_FILE", "long-term-memory.json"),
		MemoryFlushInterval: 30 * time.Second,
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.UpstreamTimeout, err = durationFromEnv("GROQ_TIMEOUT", cfg.UpstreamTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryFlushInterval, err = durationFromEnv("MEMORY_FLUSH_INTERVAL", cfg.MemoryFlushInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheMaxSize, err = intFromEnv("CACHE_MAX_SIZE", cfg.CacheMaxSize)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatWindow, err = intFromEnv("CHAT_WINDOW_SIZE", cfg.ChatWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.GroqTemperature, err = floatFromEnv("GROQ_TEMPERATURE", cfg.GroqTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.CacheMaxSize <= 0 {
		return Config{}, fmt.Errorf("CACHE_MAX_SIZE must be positive")
	}
	if cfg.ChatWindow < 2 {
		return Config{}, fmt.Errorf("CHAT_WINDOW_SIZE must be at least 2")
	}
	if cfg.GroqTemperature < 0 || cfg.GroqTemperature > 2 {
		return Config{}, fmt.Errorf("GROQ_TEMPERATURE must be within [0, 2]")
	}
	if cfg.MemoryFlushInterval < time.Second {
		return Config{}, fmt.Errorf("MEMORY_FLUSH_INTERVAL must be at least 1s")
	}
	if strings.TrimSpace(cfg.MemoryFile) == "" {
		return Config{}, fmt.Errorf("MEMORY_FILE must not be empty")
	}

	return cfg, nil
}

// defaultBindAddr honors the platform-provided PORT variable when set.
func defaultBindAddr() string {
	if port := envTrimmed("PORT"); port != "" {
		return ":" + port
	}
	return ":3000"
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
