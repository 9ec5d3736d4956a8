package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Remote  RemoteConfig
	Session SessionConfig
}

type AppConfig struct {
	AppName     string `envconfig:"APP_NAME" default:"event-booking-client"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"3000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	// RefreshCron re-fetches users and time slots on a schedule while a
	// session is active. Empty disables the background refresh.
	RefreshCron string `envconfig:"REFRESH_CRON" default:""`
}

type RemoteConfig struct {
	// BaseURL of the booking service this client talks to.
	BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
}

type SessionConfig struct {
	// Storage selects where the bearer credential survives restarts:
	// "file" keeps a single token file on disk, "redis" keeps a single key.
	Storage       string `envconfig:"SESSION_STORAGE" default:"file"`
	TokenFile     string `envconfig:"SESSION_TOKEN_FILE" default:"./data/token"`
	RedisAddr     string `envconfig:"SESSION_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"SESSION_REDIS_PASSWORD" default:""`
	RedisKey      string `envconfig:"SESSION_REDIS_KEY" default:"event-booking:token"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
