package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	// Location interprets calendar dates: due dates, completion dates and
	// the day boundaries of streaks.
	Location        *time.Location
	BootstrapFamily string
	BootstrapAdmin  string
}

// Load reads configuration from the environment after applying an optional
// .env file. Variables already set in the environment take precedence.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	tz := getEnv("FT_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid FT_TIMEZONE %q: %w", tz, err)
	}

	return &Config{
		Port:            getEnv("FT_PORT", "8080"),
		DBPath:          getEnv("FT_DB_PATH", "fantastictask.db"),
		LogLevel:        getEnv("FT_LOG_LEVEL", "info"),
		LogFormat:       getEnv("FT_LOG_FORMAT", "text"),
		Location:        loc,
		BootstrapFamily: getEnv("FT_BOOTSTRAP_FAMILY", "Family"),
		BootstrapAdmin:  getEnv("FT_BOOTSTRAP_ADMIN", "Admin"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
