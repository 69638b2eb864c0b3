// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Backends for the listings read path.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// GinMode is gin's run mode ("debug" or "release").
	GinMode string
	// AllowedOrigins is the CORS origin whitelist entry.
	AllowedOrigins string

	// ListingsServiceURL is the base URL of the streaming listings service.
	ListingsServiceURL string

	// ListingsBackend selects how the recommendation strategies read listings:
	// PostgREST via Supabase, or the database directly.
	ListingsBackend string

	// FirestoreProjectID enables swipe journaling when set.
	FirestoreProjectID string
}

// Load reads the configuration. ListingsServiceURL is the only hard
// requirement; everything else has a default or is optional.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		ListingsServiceURL: os.Getenv("LISTINGS_SERVICE_URL"),
		ListingsBackend:    getEnv("LISTINGS_BACKEND", BackendSupabase),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
	}

	if cfg.ListingsServiceURL == "" {
		return nil, fmt.Errorf("LISTINGS_SERVICE_URL environment variable is not set")
	}
	if cfg.ListingsBackend != BackendSupabase && cfg.ListingsBackend != BackendPostgres {
		return nil, fmt.Errorf("LISTINGS_BACKEND must be %q or %q, got %q",
			BackendSupabase, BackendPostgres, cfg.ListingsBackend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
