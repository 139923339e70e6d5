package main

import (
	"fmt"
	"os"
)

// Config holds all configuration for the contract engine.
type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string

	// External payment gateway credentials
	GatewayBaseURL   string
	GatewayAPIKey    string
	GatewayAPISecret string

	// Member token verification
	JWTSecret string

	// Kafka payment lifecycle events (optional)
	KafkaBrokers string
	KafkaTopic   string

	// SNS coupon events (optional)
	CouponSNSTopicARN string

	// Entitlement cache (optional)
	RedisAddr string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8091"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      os.Getenv("POSTGRES_HOST"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		GatewayBaseURL:    os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIKey:     os.Getenv("GATEWAY_API_KEY"),
		GatewayAPISecret:  os.Getenv("GATEWAY_API_SECRET"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		CouponSNSTopicARN: os.Getenv("COUPON_SNS_TOPIC_ARN"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.GatewayBaseURL == "" || cfg.GatewayAPIKey == "" || cfg.GatewayAPISecret == "" {
		return nil, fmt.Errorf("gateway config incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
