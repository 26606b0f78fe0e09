package app

import "os"

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string
	AdminToken   string
}

// DefaultConfig возвращает базовые адреса для HTTP API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// LoadConfig читает настройки из переменных окружения поверх значений
// по умолчанию. Пустая переменная оставляет значение по умолчанию.
func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTPAddr = envOr("STOREFRONT_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envOr("STOREFRONT_METRICS_ADDR", cfg.MetricsAddr)
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.KafkaBrokers = os.Getenv("KAFKA_BROKERS")
	cfg.AdminToken = os.Getenv("STOREFRONT_ADMIN_TOKEN")
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
