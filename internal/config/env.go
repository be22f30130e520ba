package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`
	GinMode string `envconfig:"GIN_MODE"`

	DBDSN  string `envconfig:"DB_DSN"`
	DBUser string `envconfig:"DB_USER" default:"root"`
	DBPass string `envconfig:"DB_PASS"`
	DBHost string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort string `envconfig:"DB_PORT" default:"3306"`
	DBName string `envconfig:"DB_NAME" default:"musafir"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"musafir.events"`

	GroupMinSize           int `envconfig:"GROUP_MIN_SIZE" default:"4"`
	MusafirMinTenureMonths int `envconfig:"MUSAFIR_MIN_TENURE_MONTHS" default:"6"`

	RateLimitCapacity int           `envconfig:"RATE_LIMIT_CAPACITY" default:"20"`
	RateLimitRefill   int           `envconfig:"RATE_LIMIT_REFILL_PER_SEC" default:"5"`
	BudgetGateTTL     time.Duration `envconfig:"BUDGET_GATE_TTL" default:"10m"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
}

// LoadEnv reads .env when present, then the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	if env.GroupMinSize < 2 {
		return Env{}, fmt.Errorf("GROUP_MIN_SIZE must be at least 2")
	}
	if env.MusafirMinTenureMonths < 0 {
		return Env{}, fmt.Errorf("MUSAFIR_MIN_TENURE_MONTHS must not be negative")
	}
	return env, nil
}

// DSN builds the MySQL DSN unless DB_DSN is set explicitly.
func (e Env) DSN() string {
	if strings.TrimSpace(e.DBDSN) != "" {
		return e.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser, e.DBPass, e.DBHost, e.DBPort, e.DBName)
}
