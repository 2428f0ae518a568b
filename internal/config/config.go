package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AgentAPIURL   string
	Environment   string
	SupabaseDBURL string
	TablePrefix   string
	LogDir        string
	// Debug flags
	Debug bool // Enables DEBUG level logging of stream events
}

// Load reads configuration from the environment, layering a local .env
// file underneath when one exists.
func Load() *Config {
	// Missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		AgentAPIURL:   getEnv("AGENT_API_URL", "http://localhost:4000"),
		Environment:   env,
		SupabaseDBURL: getEnv("SUPABASE_DB_URL", ""),
		TablePrefix:   tablePrefix,
		LogDir:        getEnv("LOG_DIR", "logs"),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	case "dev":
		return "dev_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
