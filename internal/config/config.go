package config

import (
	"errors"
	"strings"
	"time"
)

// Config defines chargehub service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"CHARGEHUB_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"CHARGEHUB_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"CHARGEHUB_REDIS_ADDR"`
		Password string `yaml:"password" env:"CHARGEHUB_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"CHARGEHUB_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"CHARGEHUB_JWT_SECRET"`
	} `yaml:"auth"`
	Payment struct {
		TimeoutSeconds int `yaml:"timeoutSeconds" env:"CHARGEHUB_PAYMENT_TIMEOUT"`
	} `yaml:"payment"`
	RateLimit struct {
		PerMinute int `yaml:"perMinute" env:"CHARGEHUB_RATE_PER_MINUTE"`
		Burst     int `yaml:"burst" env:"CHARGEHUB_RATE_BURST"`
	} `yaml:"rateLimit"`
}

// Load reads configuration from YAML file and environment.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.TTL = 86400
	cfg.Payment.TimeoutSeconds = 5
	cfg.RateLimit.PerMinute = 120
	cfg.RateLimit.Burst = 30

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// PaymentTimeout bounds a single gateway call.
func (c *Config) PaymentTimeout() time.Duration {
	if c.Payment.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Payment.TimeoutSeconds) * time.Second
}

// ActiveSessionTTL is the redis cache expiry for active session records.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
