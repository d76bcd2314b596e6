package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Workflow      WorkflowConfig
	Fees          FeesConfig
	Settlements   SettlementsConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig tunes the activation trigger loop.
type WorkflowConfig struct {
	TriggerEnabled  bool
	TriggerInterval time.Duration
	TriggerBatch    int
}

// FeesConfig selects the accrual policy and caching behaviour.
type FeesConfig struct {
	PolicyMode string
	CacheTTL   time.Duration
}

// SettlementsConfig controls asynchronous settlement exports.
type SettlementsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// NotificationsConfig controls the redis event channel.
type NotificationsConfig struct {
	Enabled       bool
	ChannelPrefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Workflow = WorkflowConfig{
		TriggerEnabled:  v.GetBool("WORKFLOW_TRIGGER_ENABLED"),
		TriggerInterval: parseDuration(v.GetString("WORKFLOW_TRIGGER_INTERVAL"), 30*time.Second),
		TriggerBatch:    v.GetInt("WORKFLOW_TRIGGER_BATCH"),
	}

	cfg.Fees = FeesConfig{
		PolicyMode: strings.ToUpper(v.GetString("FEE_POLICY_MODE")),
		CacheTTL:   parseDuration(v.GetString("FEE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Settlements = SettlementsConfig{
		Enabled:           v.GetBool("ENABLE_SETTLEMENTS"),
		StorageDir:        v.GetString("SETTLEMENTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("SETTLEMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("SETTLEMENTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("SETTLEMENTS_CLEANUP_INTERVAL"), time.Hour),
		ResultTTL:         parseDuration(v.GetString("SETTLEMENTS_RESULT_TTL"), 72*time.Hour),
		WorkerConcurrency: v.GetInt("SETTLEMENTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("SETTLEMENTS_WORKER_RETRIES"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:       v.GetBool("ENABLE_NOTIFICATIONS"),
		ChannelPrefix: v.GetString("NOTIFICATIONS_CHANNEL_PREFIX"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edu_workflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKFLOW_TRIGGER_ENABLED", true)
	v.SetDefault("WORKFLOW_TRIGGER_INTERVAL", "30s")
	v.SetDefault("WORKFLOW_TRIGGER_BATCH", 100)

	v.SetDefault("FEE_POLICY_MODE", "STATUS_BASED")
	v.SetDefault("FEE_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_SETTLEMENTS", false)
	v.SetDefault("SETTLEMENTS_STORAGE_DIR", "./settlements")
	v.SetDefault("SETTLEMENTS_SIGNED_URL_SECRET", "dev_settlements_secret")
	v.SetDefault("SETTLEMENTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("SETTLEMENTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("SETTLEMENTS_RESULT_TTL", "72h")
	v.SetDefault("SETTLEMENTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("SETTLEMENTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("NOTIFICATIONS_CHANNEL_PREFIX", "workflow")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
