// Package config provides configuration management for the dispatcher
// process. Process settings (bus and store addresses, log level, ops port)
// come from environment variables with sensible defaults; the routing table
// itself is a YAML file loaded separately.
//
// Environment Variables:
//
//   - ROUTING_CONFIG: Path to the YAML routing table (default: ./routing.yaml)
//   - BUS_BACKEND: Bus backend - "amqp" or "redis" (default: amqp)
//   - AMQP_URL: AMQP connection URL (required when BUS_BACKEND=amqp)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - OPS_PORT: Port for the health/introspection endpoint (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Bus backend discriminators.
const (
	BusAMQP  = "amqp"
	BusRedis = "redis"
)

// Config holds all process-level configuration values. The routing table is
// loaded separately via LoadRoutingConfig.
type Config struct {
	RoutingFile string // Path to the YAML routing table

	BusBackend string // Bus backend: "amqp" or "redis"
	AMQPURL    string // AMQP connection URL

	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	OpsPort  string // Port for the ops HTTP endpoint
	LogLevel string // Logging level (debug, info, warn, error)
}

// Load creates a new Config instance with values loaded from environment
// variables. This function does not validate the configuration - call
// Validate() on the returned Config before use.
func Load() *Config {
	return &Config{
		RoutingFile:   getEnv("ROUTING_CONFIG", "./routing.yaml"),
		BusBackend:    getEnv("BUS_BACKEND", BusAMQP),
		AMQPURL:       getEnv("AMQP_URL", ""),
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		OpsPort:       getEnv("OPS_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that all required configuration values are set and within
// range. The process must not serve traffic with an invalid configuration.
func (c *Config) Validate() error {
	switch c.BusBackend {
	case BusAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required when BUS_BACKEND=amqp")
		}
	case BusRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when BUS_BACKEND=redis")
		}
	default:
		return fmt.Errorf("BUS_BACKEND must be %q or %q, got %q", BusAMQP, BusRedis, c.BusBackend)
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.RedisDB)
	}
	if c.RedisPoolSize < 1 {
		return fmt.Errorf("REDIS_POOL_SIZE must be at least 1, got %d", c.RedisPoolSize)
	}
	if c.RoutingFile == "" {
		return fmt.Errorf("ROUTING_CONFIG is required")
	}
	if _, err := strconv.Atoi(c.OpsPort); err != nil {
		return fmt.Errorf("OPS_PORT must be numeric, got %q", c.OpsPort)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
