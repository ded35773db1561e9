package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Search   SearchConfig   `yaml:"search"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

// GRPCConfig addresses the gRPC health endpoint.
type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	MigrationsDir string `yaml:"migrations_dir"`
	MaxConns      int32  `yaml:"max_conns"`
	MinConns      int32  `yaml:"min_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL is the postgres:// form required by the migration driver.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	FlightEventsTopic string   `yaml:"flight_events_topic"`
	GroupID           string   `yaml:"group_id"`
}

type SearchConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// LoadConfig reads the YAML file at path. A .env file in the working
// directory, if any, is loaded first so secrets can come from the environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 25
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}
	if c.Kafka.FlightEventsTopic == "" {
		c.Kafka.FlightEventsTopic = "flight-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flights-cache-invalidator"
	}
	if c.Search.CacheTTLSeconds == 0 {
		c.Search.CacheTTLSeconds = 60
	}
}
