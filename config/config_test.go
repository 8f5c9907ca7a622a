package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var configKeys = []string{
	"PORT", "CORS_ALLOWED_ORIGINS", "JWT_SECRET", "JWT_TOKEN_VALIDITY", "AUTH_SEED_ACCOUNTS",
	"BCRYPT_COST", "STORE_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_POOL_SIZE", "DB_RUN_MIGRATIONS", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every variable LoadConfig reads; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Nil(t, cfg.Store.DB)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenValidity)
	assert.Equal(t, int64(86_400_000), cfg.Auth.TokenValidity.Milliseconds())
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
	assert.Equal(t, []SeedAccount{
		{Username: "user", Password: "password"},
		{Username: "admin", Password: "admin", Authorities: []string{"ADMIN"}},
	}, cfg.Auth.SeedAccounts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("DB_NAME", "usuarios")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_POOL_SIZE", "20")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.NotNil(t, cfg.Store.DB)
	assert.Equal(t, 20, cfg.Store.DB.MaxSize)
	assert.True(t, cfg.Store.RunMigrations)
	assert.Equal(t, "postgres://app:p%40ss%20word@db:6543/usuarios?sslmode=disable", cfg.Store.DB.DSN())
}

func TestLoadConfigAggregatesErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_POOL_SIZE", "500")
	t.Setenv("JWT_TOKEN_VALIDITY", "-1h")
	t.Setenv("BCRYPT_COST", "99")
	t.Setenv("AUTH_SEED_ACCOUNTS", "broken")

	_, err := LoadConfig()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"DB_USER", "DB_PASSWORD", "DB_NAME",
		"greater than maximum 100",
		"JWT_TOKEN_VALIDITY",
		"BCRYPT_COST",
		`invalid seed account "broken"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestParseSeedAccounts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []SeedAccount
		wantErr bool
	}{
		{name: "empty disables", raw: "", want: nil},
		{
			name: "multiple authorities",
			raw:  " ops:secret:ADMIN|AUDIT , viewer:v ",
			want: []SeedAccount{
				{Username: "ops", Password: "secret", Authorities: []string{"ADMIN", "AUDIT"}},
				{Username: "viewer", Password: "v"},
			},
		},
		{name: "missing password", raw: "ops:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs []string
			got := parseSeedAccounts(tt.raw, &errs)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
				return
			}
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}
