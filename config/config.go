package config

import (
	"os"
	"strings"

	"cart-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	DB    DB
	Kafka Kafka
}

type DB struct {
	database.Config
}

type Kafka struct {
	Enabled bool
	Brokers []string
	Topic   string
}

func Load(log *zap.Logger) *Config {
	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Kafka: Kafka{Enabled: kafkaEnabled},
	}

	if kafkaEnabled {
		cfg.Kafka.Brokers = splitAndTrim(getEnv("KAFKA_BROKERS", log))
		cfg.Kafka.Topic = getEnv("KAFKA_TOPIC_CHECKOUT", log)
	}

	return cfg
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func splitAndTrim(s string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		if pt := strings.TrimSpace(p); pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
