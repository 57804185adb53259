// Package config reads process configuration from the environment, after an
// optional .env file has been loaded.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/osassistant/backend/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	ModelStoreFile  = "file"
	ModelStoreRedis = "redis"
	ModelStoreNone  = "none"
)

type Config struct {
	Port       string
	GinMode    string
	Env        string
	CORSOrigin string
	LogLevel   string
	LogDir     string

	DBDriver     string
	DatabaseURL  string
	DBHost       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBPort       string
	DBSSLMode    string
	SQLitePath   string
	StoreRetries int

	ModelStore        string
	ModelDir          string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisKey          string
	ModelSaveSchedule string
	RetrainEvery      int

	RulesPath             string
	NgramMax              int
	SuggestionVarietySeed int64
}

// Load reads .env (when present) and the environment, applying defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables", nil)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:              "8080",
		GinMode:           "release",
		Env:               "development",
		LogLevel:          "INFO",
		DBDriver:          DriverSQLite,
		DBHost:            "localhost",
		DBPort:            "5432",
		DBSSLMode:         "disable",
		SQLitePath:        "./data/knowledge.db",
		StoreRetries:      3,
		ModelStore:        ModelStoreFile,
		ModelDir:          "./models",
		RedisAddr:         "localhost:6379",
		RedisKey:          "osassistant:model_state",
		ModelSaveSchedule: "*/15 * * * *",
		RetrainEvery:      10,
		NgramMax:          3,
	}

	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.GinMode, "GIN_MODE")
	envOverride(&cfg.Env, "ENV")
	envOverride(&cfg.CORSOrigin, "CORS_ORIGIN")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogDir, "LOG_DIR")

	envOverride(&cfg.DBDriver, "DB_DRIVER")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.DBHost, "DB_HOST")
	envOverride(&cfg.DBUser, "DB_USER")
	envOverride(&cfg.DBPassword, "DB_PASSWORD")
	envOverride(&cfg.DBName, "DB_NAME")
	envOverride(&cfg.DBPort, "DB_PORT")
	envOverride(&cfg.DBSSLMode, "DB_SSLMODE")
	envOverride(&cfg.SQLitePath, "SQLITE_PATH")

	envOverride(&cfg.ModelStore, "MODEL_STORE")
	envOverride(&cfg.ModelDir, "MODEL_DIR")
	envOverride(&cfg.RedisAddr, "REDIS_ADDR")
	envOverride(&cfg.RedisPassword, "REDIS_PASSWORD")
	envOverride(&cfg.RedisKey, "REDIS_KEY")
	envOverrideAllowEmpty(&cfg.ModelSaveSchedule, "MODEL_SAVE_SCHEDULE")
	envOverride(&cfg.RulesPath, "RULES_PATH")

	var errs []string
	for _, o := range []struct {
		dst *int
		key string
	}{
		{&cfg.StoreRetries, "STORE_RETRIES"},
		{&cfg.RedisDB, "REDIS_DB"},
		{&cfg.RetrainEvery, "RETRAIN_EVERY"},
		{&cfg.NgramMax, "NGRAM_MAX"},
	} {
		if err := envOverrideInt(o.dst, o.key); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if v := strings.TrimSpace(os.Getenv("SUGGESTION_VARIETY_SEED")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SUGGESTION_VARIETY_SEED: %v", err))
		} else {
			cfg.SuggestionVarietySeed = seed
		}
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	cfg.ModelStore = strings.ToLower(cfg.ModelStore)
	return cfg, cfg.Validate()
}

// Validate checks enumerated values and numeric ranges.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want postgres, sqlite or memory", c.DBDriver)
	}
	switch c.ModelStore {
	case ModelStoreFile, ModelStoreRedis, ModelStoreNone:
	default:
		return fmt.Errorf("invalid MODEL_STORE %q: want file, redis or none", c.ModelStore)
	}
	if c.StoreRetries < 1 {
		return fmt.Errorf("STORE_RETRIES must be at least 1, got %d", c.StoreRetries)
	}
	if c.RetrainEvery < 1 {
		return fmt.Errorf("RETRAIN_EVERY must be at least 1, got %d", c.RetrainEvery)
	}
	if c.NgramMax < 1 || c.NgramMax > 4 {
		return fmt.Errorf("NGRAM_MAX must be between 1 and 4, got %d", c.NgramMax)
	}
	return nil
}

// PostgresDSN prefers DATABASE_URL and otherwise assembles a key/value DSN
// from the DB_* variables.
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// envOverrideAllowEmpty lets an explicitly empty variable clear a default.
func envOverrideAllowEmpty(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envOverrideInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	*dst = n
	return nil
}
