package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN     string `env:"DATABASE_DSN,required=true"`
	ResendAPIKey    string `env:"RESEND_API_KEY,required=true"`
	ResendBaseURL   string `env:"RESEND_BASE_URL,default=https://api.resend.com"`
	EmailFrom       string `env:"EMAIL_FROM,default=noreply@mailcast.dev"`
	EmailFromName   string `env:"EMAIL_FROM_NAME,default=Mailcast"`
	RedisURL        string `env:"REDIS_URL"`
	SendIntervalMS  int    `env:"SEND_INTERVAL_MS,default=500"`
	RateLimitPerSec int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	APIPort         int    `env:"API_PORT,default=8080"`
	LogLevel        string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// FromAddress renders the sender header, e.g. `Mailcast <noreply@mailcast.dev>`.
func (c *Config) FromAddress() string {
	return fmt.Sprintf("%s <%s>", c.EmailFromName, c.EmailFrom)
}
