package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBPath      string
	LotNumber   int
	Environment string
}

// Load reads configuration from a .env file when present, then the
// environment, falling back to defaults. The database defaults to the same
// per-user location the desktop predecessor used.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DBPath:      getEnv("DB_PATH", defaultDBPath()),
		LotNumber:   getEnvInt("LOT_NUMBER", 1),
		Environment: getEnv("APP_ENV", "production"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parking_lot.db"
	}
	return filepath.Join(home, ".parkease", "parking_lot.db")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
