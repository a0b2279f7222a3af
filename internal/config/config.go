// Package config provides functionality for loading and accessing environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"fjacquet/stmt-categorizer/internal/logging"
)

var once sync.Once

// LoadEnv loads environment variables from .env file if it exists. Values
// already present in the environment are kept.
func LoadEnv() {
	once.Do(func() {
		log := logging.GetLogger()

		// Try to find .env file in current directory
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			// Try to find .env in parent directory (project root)
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				log.Debug("No .env file found, using environment variables")
				return
			}
		}

		if err := godotenv.Load(envFile); err != nil {
			log.WithError(err).Warn("Error loading .env file")
			return
		}
		log.Debug("Loaded environment variables", logging.Field{Key: logging.FieldFile, Value: envFile})

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			logging.SetAllLogLevels(level)
		}
	})
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
