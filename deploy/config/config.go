package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	SignalLocal = "local"
	SignalRedis = "redis"
	SignalKafka = "kafka"
)

type Config struct {
	Log        Log
	HTTPServer HTTPServer
	Provider   Provider
	Cache      Cache
	Catalog    Catalog
	Storage    Storage
	Redis      Redis
	Kafka      Kafka
}

type Log struct {
	Level  string `env:"LOG_LEVEL" env-default:"debug"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

type HTTPServer struct {
	Port            string        `env:"HTTP_PORT" env-default:"8082"`
	Timeout         time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Provider struct {
	URL        string        `env:"PROVIDER_URL" env-default:"https://api.exchangerate.host"`
	AccessKey  string        `env:"PROVIDER_ACCESS_KEY"`
	Timeout    time.Duration `env:"PROVIDER_TIMEOUT" env-default:"5s"`
	Attempts   int           `env:"PROVIDER_ATTEMPTS" env-default:"3"`
	RetryDelay time.Duration `env:"PROVIDER_RETRY_DELAY" env-default:"1s"`
	RPS        float64       `env:"PROVIDER_RPS" env-default:"0"`
	Burst      int           `env:"PROVIDER_BURST" env-default:"1"`
}

type Cache struct {
	Enabled  bool          `env:"CACHE_ENABLED" env-default:"true"`
	Capacity int           `env:"CACHE_CAPACITY" env-default:"0"`
	TTL      time.Duration `env:"CACHE_TTL" env-default:"0"`
}

type Catalog struct {
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" env-default:"1h"`
	// Sync runs the refresher inside the api process. Turn it off when a
	// separate currency_fetcher owns the table.
	Sync           bool          `env:"CATALOG_SYNC" env-default:"true"`
	Signal         string        `env:"CATALOG_SIGNAL" env-default:"local"`
	SignalCooldown time.Duration `env:"CATALOG_SIGNAL_COOLDOWN" env-default:"1m"`
}

type Storage struct {
	Enabled  bool          `env:"BD_ENABLED" env-default:"false"`
	Migrate  bool          `env:"BD_MIGRATE" env-default:"true"`
	Timeout  time.Duration `env:"BD_TIMEOUT" env-default:"10s"`
	Host     string        `env:"BD_HOST" env-default:"localhost"`
	Port     int           `env:"BD_PORT" env-default:"5432"`
	User     string        `env:"BD_USER" env-default:"postgres"`
	Password string        `env:"BD_PASSWORD"`
	DBName   string        `env:"BD_DBNAME" env-default:"exchange"`
	SSLMode  string        `env:"BD_SSL_MODE" env-default:"disable"`
	Schema   string        `env:"BD_SCHEMA" env-default:"public"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Channel  string `env:"REDIS_CHANNEL" env-default:"new_currency"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"currency-refresh"`
	GroupID string   `env:"KAFKA_GROUP_ID" env-default:"currency-fetcher"`
}

func NewConfig() *Config {
	cfg, err := Read()
	if err != nil {
		log.Fatalf("Error reading env: %v", err)
	}

	return cfg
}

// Read loads .env when present and then the process environment.
func Read() (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load(".env")

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Signal {
	case SignalLocal, SignalRedis, SignalKafka:
	default:
		return fmt.Errorf("unknown CATALOG_SIGNAL %q", c.Catalog.Signal)
	}

	if c.Provider.Attempts < 1 {
		return fmt.Errorf("PROVIDER_ATTEMPTS must be at least 1, got %d", c.Provider.Attempts)
	}

	if c.Cache.Capacity < 0 {
		return fmt.Errorf("CACHE_CAPACITY must not be negative, got %d", c.Cache.Capacity)
	}

	return nil
}

// URL builds the postgres connection string, search_path included.
func (s Storage) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.User, s.Password),
		Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:   s.DBName,
	}

	q := url.Values{}
	q.Set("sslmode", s.SSLMode)
	if s.Schema != "" {
		q.Set("search_path", s.Schema)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
