package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort       int
	Environment      string // "development" or "production"
	DatabasePath     string
	UploadDir        string // Base path for uploaded pet photos
	JWTSecret        string
	CORSOrigin       string // Allowed origin in production
	NominatimBaseURL string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables win either way.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "3002")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:       port,
		Environment:      getEnv("APP_ENV", "development"),
		DatabasePath:     getEnv("DATABASE_PATH", "./petalert.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigin:       getEnv("CORS_ORIGIN", "https://petalertefrance.fr"),
		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
	}, nil
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
