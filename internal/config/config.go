package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Postgres     `yaml:"postgres"`
	Redis        `yaml:"redis"`
	JWT          `yaml:"jwt"`
	Verification `yaml:"verification"`
	BruteForce   `yaml:"brute_force"`
	RateLimit    `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"redis"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type JWT struct {
	Secret         string        `yaml:"secret" env:"JWT_SECRET_KEY" env-required:"true"`
	Algorithm      string        `yaml:"algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" env-default:"30m"`
}

type Verification struct {
	TokenTTL time.Duration `yaml:"token_ttl" env:"VERIFICATION_TOKEN_TTL" env-default:"744h"`
}

type BruteForce struct {
	MaxAttempts     int           `yaml:"max_attempts" env-default:"5"`
	AttemptWindow   time.Duration `yaml:"attempt_window" env-default:"5m"`
	LockoutDuration time.Duration `yaml:"lockout_duration" env-default:"15m"`
}

// RateLimit is the per-route fixed-window table. Routes not listed here
// fall back to the default limit.
type RateLimit struct {
	LoginLimit     int           `yaml:"login_limit" env-default:"5"`
	LoginWindow    time.Duration `yaml:"login_window" env-default:"60s"`
	RegisterLimit  int           `yaml:"register_limit" env-default:"3"`
	RegisterWindow time.Duration `yaml:"register_window" env-default:"60s"`
	DefaultLimit   int           `yaml:"default_limit" env-default:"100"`
	DefaultWindow  time.Duration `yaml:"default_window" env-default:"60s"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
