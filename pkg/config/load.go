package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file it can locate among the given names and then
// builds the App config from the process environment. With no names, or when
// none resolve, it falls back to a plain .env in the working directory.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	for _, path := range envFilePath {
		found, err := findEnvFile(path)
		if err != nil {
			logger.Debug("Env file not found", "path", path)
			continue
		}
		if err := godotenv.Load(found); err != nil {
			logger.Error("Failed to load env file", "path", found, "error", err)
			continue
		}
		logger.Info("Environment loaded", "path", found)
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using process environment")
	}
	return loadFromEnv()
}

// findEnvFile walks from the working directory up toward the filesystem
// root and returns the first hit for name. Tests run from their package
// directory, so the upward walk is what lets them pick up the repo-level
// env file.
func findEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func loadFromEnv() (*App, error) {
	var cfg App
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}

	logger := slog.Default()
	dbURL := ""
	if cfg.DB != nil {
		dbURL = maskValue(cfg.DB.Url)
	}
	logger.Info("App config loaded", "env", cfg.Env, "db", dbURL)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
