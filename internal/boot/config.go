package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env                 string `env:"ENV,default=dev"`
	BindAddr            string `env:"BIND_ADDR,default=:8080"`
	MetricsAddr         string `env:"METRICS_ADDR,default=:8081"`
	DatabasePath        string `env:"DATABASE_PATH,default=nevermore.db"`
	JWTSecret           string `env:"JWT_SECRET,default=midnight-dreary"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	AttemptThreshold    int    `env:"ATTEMPT_THRESHOLD,default=5"`
	CooldownSeconds     int    `env:"COOLDOWN_SECONDS,default=120"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS,default=2"`
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
