package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

// DatabaseConfig selects the gorm dialect. DSN, when set, wins over the
// per-driver fields.
type DatabaseConfig struct {
	Driver   string         `toml:"driver"`
	DSN      string         `toml:"dsn"`
	MySQL    MySQLConfig    `toml:"mysql"`
	Postgres PostgresConfig `toml:"postgres"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	SSLMode  string `toml:"sslmode"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig enables the history cache when Addr is non-empty.
type RedisConfig struct {
	Addr                   string `toml:"addr"`
	Password               string `toml:"password"`
	DB                     int    `toml:"db"`
	HistoryTTLSeconds      int    `toml:"history_ttl_seconds"`
	HistoryDirtyTTLSeconds int    `toml:"history_dirty_ttl_seconds"`
}

// RabbitMQConfig enables conversation events when URL is non-empty.
type RabbitMQConfig struct {
	URL         string `toml:"url"`
	EventsQueue string `toml:"events_queue"`
}

type LLMConfig struct {
	Provider       string  `toml:"provider"`
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

type RetrievalConfig struct {
	ChunkBytes    int `toml:"chunk_bytes"`
	TopK          int `toml:"top_k"`
	HistoryWindow int `toml:"history_window"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env failed: %w", err)
		}
		log.Println("no .env file found, relying on environment variables")
	}

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.Retrieval.ChunkBytes <= 0 || c.Retrieval.TopK <= 0 || c.Retrieval.HistoryWindow <= 0 {
		return errors.New("retrieval chunk_bytes, top_k and history_window must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case DriverMySQL:
		m := c.Database.MySQL
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, m.Host, m.Port, m.DB, m.Params)
	case DriverPostgres:
		p := c.Database.Postgres
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
	default:
		return c.Database.SQLite.Path
	}
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "botgpt-backend",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "debug",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			MySQL: MySQLConfig{
				Host:   "127.0.0.1",
				Port:   3306,
				User:   "root",
				DB:     "botgpt",
				Params: "parseTime=true&loc=Local&charset=utf8mb4",
			},
			Postgres: PostgresConfig{
				Host:    "127.0.0.1",
				Port:    5432,
				User:    "postgres",
				DB:      "botgpt",
				SSLMode: "disable",
			},
			SQLite: SQLiteConfig{Path: "botgpt.db"},
		},
		Redis: RedisConfig{
			HistoryTTLSeconds:      60,
			HistoryDirtyTTLSeconds: 5,
		},
		RabbitMQ: RabbitMQConfig{
			EventsQueue: "botgpt.conversation.events",
		},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.1-8b-instant",
			Temperature:    0.7,
			MaxTokens:      1024,
			TimeoutSeconds: 90,
		},
		Retrieval: RetrievalConfig{
			ChunkBytes:    500,
			TopK:          3,
			HistoryWindow: 12,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.Database.MySQL.Host = getEnv("MYSQL_HOST", cfg.Database.MySQL.Host)
	cfg.Database.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.Database.MySQL.Port)
	cfg.Database.MySQL.User = getEnv("MYSQL_USER", cfg.Database.MySQL.User)
	cfg.Database.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Database.MySQL.Password)
	cfg.Database.MySQL.DB = getEnv("MYSQL_DB", cfg.Database.MySQL.DB)
	cfg.Database.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.Database.MySQL.Params)
	cfg.Database.Postgres.Host = getEnv("POSTGRES_HOST", cfg.Database.Postgres.Host)
	cfg.Database.Postgres.Port = getEnvAsInt("POSTGRES_PORT", cfg.Database.Postgres.Port)
	cfg.Database.Postgres.User = getEnv("POSTGRES_USER", cfg.Database.Postgres.User)
	cfg.Database.Postgres.Password = getEnv("POSTGRES_PASSWORD", cfg.Database.Postgres.Password)
	cfg.Database.Postgres.DB = getEnv("POSTGRES_DB", cfg.Database.Postgres.DB)
	cfg.Database.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", cfg.Database.Postgres.SSLMode)
	cfg.Database.SQLite.Path = getEnv("SQLITE_PATH", cfg.Database.SQLite.Path)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)
	cfg.Redis.HistoryDirtyTTLSeconds = getEnvAsInt("REDIS_HISTORY_DIRTY_TTL_SECONDS", cfg.Redis.HistoryDirtyTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.EventsQueue = getEnv("RABBITMQ_EVENTS_QUEUE", cfg.RabbitMQ.EventsQueue)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	// LLM_API_KEY wins over GROQ_API_KEY when both are set.
	cfg.LLM.APIKey = getEnv("GROQ_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Retrieval.ChunkBytes = getEnvAsInt("RETRIEVAL_CHUNK_BYTES", cfg.Retrieval.ChunkBytes)
	cfg.Retrieval.TopK = getEnvAsInt("RETRIEVAL_TOP_K", cfg.Retrieval.TopK)
	cfg.Retrieval.HistoryWindow = getEnvAsInt("RETRIEVAL_HISTORY_WINDOW", cfg.Retrieval.HistoryWindow)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
