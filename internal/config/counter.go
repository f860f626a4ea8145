// internal/config/counter.go
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// CounterConfig configures the command line counting client.
type CounterConfig struct {
	ServerURL string
	Email     string
	Password  string
	Timeout   time.Duration
	LogLevel  string
}

func LoadCounter() (*CounterConfig, error) {
	godotenv.Load()

	cfg := &CounterConfig{
		ServerURL: getEnv("STOCKCOUNT_SERVER", "http://localhost:8000"),
		Email:     getEnv("STOCKCOUNT_EMAIL", ""),
		Password:  getEnv("STOCKCOUNT_PASSWORD", ""),
		Timeout:   time.Duration(getEnvAsInt("STOCKCOUNT_TIMEOUT", 30)) * time.Second,
		LogLevel:  getEnv("LOG_LEVEL", "warn"),
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("STOCKCOUNT_SERVER is required")
	}
	return cfg, nil
}
