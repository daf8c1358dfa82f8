package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DocstoreBackend string
	MongoURI        string
	MongoDBName     string

	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionTTL     time.Duration

	CartIdleEviction time.Duration
	CheckoutTimeout  time.Duration

	KafkaBrokers []string
	OrdersTopic  string

	LogLevel    string
	Development bool
}

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"

	DocstoreBackendMongo  = "mongo"
	DocstoreBackendMemory = "memory"
)

// Load reads an optional .env file from envFiles (defaults to ".env") and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPPort:         v.GetString("HTTP_PORT"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		DocstoreBackend:  strings.ToLower(v.GetString("DOCSTORE_BACKEND")),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDBName:      v.GetString("MONGO_DB_NAME"),
		SessionBackend:   strings.ToLower(v.GetString("SESSION_BACKEND")),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		SessionTTL:       v.GetDuration("SESSION_TTL"),
		CartIdleEviction: v.GetDuration("CART_IDLE_EVICTION"),
		CheckoutTimeout:  v.GetDuration("CHECKOUT_TIMEOUT"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		OrdersTopic:      v.GetString("ORDERS_TOPIC"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		Development:      v.GetBool("DEVELOPMENT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("DOCSTORE_BACKEND", DocstoreBackendMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("SESSION_BACKEND", SessionBackendRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("CART_IDLE_EVICTION", 10*time.Minute)
	v.SetDefault("CHECKOUT_TIMEOUT", 10*time.Second)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ORDERS_TOPIC", "orders")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEVELOPMENT", false)
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.DocstoreBackend {
	case DocstoreBackendMongo, DocstoreBackendMemory:
	default:
		return fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.DocstoreBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.CheckoutTimeout <= 0 {
		return errors.New("CHECKOUT_TIMEOUT must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
