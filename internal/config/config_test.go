package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "MODEL_STORE", "STORE_RETRIES", "RETRAIN_EVERY", "NGRAM_MAX", "MODEL_SAVE_SCHEDULE", "PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, ModelStoreFile, cfg.ModelStore)
	assert.Equal(t, 3, cfg.StoreRetries)
	assert.Equal(t, 10, cfg.RetrainEvery)
	assert.Equal(t, 3, cfg.NgramMax)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(0), cfg.SuggestionVarietySeed)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("MODEL_STORE", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NGRAM_MAX", "4")
	t.Setenv("SUGGESTION_VARIETY_SEED", "42")
	t.Setenv("MODEL_SAVE_SCHEDULE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, ModelStoreRedis, cfg.ModelStore)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 4, cfg.NgramMax)
	assert.Equal(t, int64(42), cfg.SuggestionVarietySeed)
	assert.Empty(t, cfg.ModelSaveSchedule)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DB_DRIVER", "mysql", "DB_DRIVER"},
		{"MODEL_STORE", "s3", "MODEL_STORE"},
		{"NGRAM_MAX", "7", "NGRAM_MAX"},
		{"STORE_RETRIES", "abc", "STORE_RETRIES"},
		{"RETRAIN_EVERY", "0", "RETRAIN_EVERY"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBUser: "kb", DBPassword: "pw", DBName: "kb", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=kb password=pw dbname=kb port=5432 sslmode=disable", cfg.PostgresDSN())

	cfg.DatabaseURL = "postgres://kb:pw@db/kb"
	assert.Equal(t, "postgres://kb:pw@db/kb", cfg.PostgresDSN())
}
