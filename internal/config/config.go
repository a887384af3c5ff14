package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all process configuration
type Config struct {
	LogMode string `yaml:"logMode"`
	Port    string `yaml:"port"`

	Telegram TelegramConfig `yaml:"telegram"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Admin    AdminConfig    `yaml:"admin"`

	Classifier *ClassifierConfig `yaml:"classifier"`
	Sheets     *SheetsConfig     `yaml:"sheets"`

	CORSAllowedOrigins string `yaml:"corsAllowedOrigins"`
}

type TelegramConfig struct {
	Token    string `yaml:"-"`
	Username string `yaml:"username"`
	// PollTimeoutSec is the long-poll timeout for getUpdates
	PollTimeoutSec int `yaml:"pollTimeoutSec"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

type AdminConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"-"`
	JWTSecret string `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		LogMode: "dev",
		Port:    "8080",
		Telegram: TelegramConfig{
			Username:       "feedback_bot",
			PollTimeoutSec: 60,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "feedbackbot",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			SessionTTL: 10 * time.Minute,
		},
		Admin: AdminConfig{
			Username:  "admin",
			Password:  "password123",
			JWTSecret: "super-secret-key-change-in-production",
		},
		Classifier:         DefaultClassifierConfig(),
		Sheets:             DefaultSheetsConfig(),
		CORSAllowedOrigins: "*",
	}
}

// Load reads .env (never overriding the real environment), then an optional
// YAML file, then environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogMode = getEnv("LOG_MODE", c.LogMode)
	c.Port = getEnv("PORT", c.Port)
	c.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	c.Telegram.Username = getEnv("TELEGRAM_BOT_USERNAME", c.Telegram.Username)
	c.Telegram.PollTimeoutSec = getEnvInt("TELEGRAM_POLL_TIMEOUT_SEC", c.Telegram.PollTimeoutSec)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)

	// Remove redis:// prefix if present
	c.Redis.Addr = strings.TrimPrefix(getEnv("REDIS_URI", c.Redis.Addr), "redis://")
	if ttl := os.Getenv("SESSION_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Redis.SessionTTL = d
		}
	}

	c.Admin.Username = getEnv("ADMIN_USERNAME", c.Admin.Username)
	c.Admin.Password = getEnv("ADMIN_PASSWORD", c.Admin.Password)
	c.Admin.JWTSecret = getEnv("JWT_SECRET", c.Admin.JWTSecret)
	c.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	if c.Classifier == nil {
		c.Classifier = DefaultClassifierConfig()
	}
	c.Classifier.applyEnv()
	if c.Sheets == nil {
		c.Sheets = DefaultSheetsConfig()
	}
	c.Sheets.applyEnv()
}

// IsProduction reports whether the process runs in prod log mode
func (c *Config) IsProduction() bool {
	mode := strings.ToLower(strings.TrimSpace(c.LogMode))
	return mode == "prod" || mode == "production"
}

// UsesDefaultAdminCredentials reports whether the admin password or JWT
// secret is still the built-in development value
func (c *Config) UsesDefaultAdminCredentials() bool {
	def := Default().Admin
	return c.Admin.Password == def.Password || c.Admin.JWTSecret == def.JWTSecret
}

// Validate reports settings the process cannot start without. In prod mode
// the built-in admin credentials are rejected.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Redis.SessionTTL <= 0 {
		return errors.New("session cache TTL must be positive")
	}
	if c.IsProduction() && c.UsesDefaultAdminCredentials() {
		return errors.New("ADMIN_PASSWORD and JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
