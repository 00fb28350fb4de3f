package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL":   "postgres://localhost/robots",
		"JWT_SECRET_KEY": "secret",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Nil(t, cfg.ShuffleSeed)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
}

func TestFromEnv_AllValues(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL":         "file:robots.db",
		"DB_DRIVER":            "sqlite3",
		"JWT_SECRET_KEY":       "secret",
		"SERVER_PORT":          "9000",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
		"RATE_LIMIT_RPS":       "0",
		"RATE_LIMIT_BURST":     "3",
		"SHUFFLE_SEED":         "42",
		"R2_BUCKET_NAME":       "brackets",
		"NATS_URL":             "nats://localhost:4222",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0.0, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	require.NotNil(t, cfg.ShuffleSeed)
	assert.Equal(t, uint64(42), *cfg.ShuffleSeed)
	assert.Equal(t, "brackets", cfg.R2BucketName)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestFromEnv_Errors(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "s"}
	}
	tests := map[string]func(m map[string]string){
		"missing database url": func(m map[string]string) { delete(m, "DATABASE_URL") },
		"missing jwt secret":   func(m map[string]string) { delete(m, "JWT_SECRET_KEY") },
		"unknown driver":       func(m map[string]string) { m["DB_DRIVER"] = "mysql" },
		"bad port":             func(m map[string]string) { m["SERVER_PORT"] = "http" },
		"port out of range":    func(m map[string]string) { m["SERVER_PORT"] = "70000" },
		"negative rps":         func(m map[string]string) { m["RATE_LIMIT_RPS"] = "-1" },
		"zero burst":           func(m map[string]string) { m["RATE_LIMIT_BURST"] = "0" },
		"bad seed":             func(m map[string]string) { m["SHUFFLE_SEED"] = "-5" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			vars := base()
			mutate(vars)
			_, err := FromEnv(envOf(vars))
			assert.Error(t, err)
		})
	}
}
