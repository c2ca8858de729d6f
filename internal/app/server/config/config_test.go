package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTTTL)
	assert.Equal(t, time.Minute, cfg.Cache.TenantTTL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "migrations/global", cfg.GlobalMigrations())
	assert.Equal(t, "migrations/tenant", cfg.TenantMigrations())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RUN_ADDRESS", ":9000")
	t.Setenv("DATABASE_URI", "postgres://localhost/greenkeep")
	t.Setenv("MIGRATIONS_PATH", "/srv/migrations/")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "/srv/migrations/tenant", cfg.TenantMigrations())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without uri", map[string]string{"STORAGE_DRIVER": "postgres", "JWT_SECRET": "x"}, "DATABASE_URI is required"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo", "JWT_SECRET": "x"}, "unknown STORAGE_DRIVER"},
		{"no secret", map[string]string{"STORAGE_DRIVER": "memory"}, "JWT_SECRET is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DATABASE_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
