package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Business  BusinessConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// BusinessConfig covers the booking-day timezone and the terms template.
type BusinessConfig struct {
	DayTZ             string
	TermsTemplatePath string
}

type RateLimitConfig struct {
	Limit  int64
	Window time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPortStr := os.Getenv("POSTGRES_PORT")
	if postgresPortStr == "" {
		postgresPortStr = "5432"
	}

	postgresPort, err := strconv.Atoi(postgresPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	dayTZ := os.Getenv("DAY_TZ")
	if dayTZ == "" {
		dayTZ = "UTC"
	}

	businessCfg := BusinessConfig{
		DayTZ:             dayTZ,
		TermsTemplatePath: os.Getenv("TERMS_TEMPLATE_PATH"),
	}

	rlLimitStr := os.Getenv("RATE_LIMIT")
	if rlLimitStr == "" {
		rlLimitStr = "30"
	}

	rlLimit, err := strconv.ParseInt(rlLimitStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid RATE_LIMIT: %w", op, err)
	}

	rlWindowStr := os.Getenv("RATE_LIMIT_WINDOW")
	if rlWindowStr == "" {
		rlWindowStr = "1m"
	}

	rlWindow, err := time.ParseDuration(rlWindowStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid RATE_LIMIT_WINDOW: %w", op, err)
	}

	rateLimitCfg := RateLimitConfig{
		Limit:  rlLimit,
		Window: rlWindow,
	}

	return &Config{
		Server:    serverCfg,
		Postgres:  postgresCfg,
		Redis:     redisCfg,
		Business:  businessCfg,
		RateLimit: rateLimitCfg,
	}, nil
}
