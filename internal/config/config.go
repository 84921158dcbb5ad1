package config

import (
	"errors"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	StorageBackend string // file or postgres
	PostgresDSN    string
	DataDir        string

	GeminiAPIKey string
	GeminiAPIURL string

	JWTSecret      string
	AuthServiceURL string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Port:           getEnv("PORT", "5000"),
			StorageBackend: getEnv("STORAGE_BACKEND", "file"),
			PostgresDSN:    getEnv("POSTGRES_DSN", ""),
			DataDir:        getEnv("DATA_DIR", "data"),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiAPIURL:   getEnv("GEMINI_API_URL", ""),
			JWTSecret:      getEnv("JWT_SECRET", ""),
			AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.StorageBackend == "postgres" && c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.StorageBackend == "file" && c.DataDir == "" {
		return errors.New("File storage requires DATA_DIR to be set")
	}
	if c.StorageBackend != "file" && c.StorageBackend != "postgres" {
		return errors.New("STORAGE_BACKEND must be one of: file, postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env == "development" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required for local token validation")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
