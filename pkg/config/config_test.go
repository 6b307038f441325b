package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("TEST_INT_OK", "42")
	t.Setenv("TEST_INT_BAD", "forty")

	assert.Equal(t, 42, EnvIntDefault("TEST_INT_OK", 1))
	assert.Equal(t, 1, EnvIntDefault("TEST_INT_BAD", 1))
	assert.Equal(t, 7, EnvIntDefault("TEST_INT_MISSING", 7))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL_ON", "true")
	t.Setenv("TEST_BOOL_BAD", "maybe")

	assert.True(t, EnvBool("TEST_BOOL_ON", false))
	assert.True(t, EnvBool("TEST_BOOL_BAD", true))
	assert.False(t, EnvBool("TEST_BOOL_MISSING", false))
}

func TestLoad_ReadsTokenSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_TTL", "5")
	t.Setenv("JWT_REFRESH_TTL", "60")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg := Load()
	assert.Equal(t, []byte("access"), cfg.JWTAccessSecret)
	assert.Equal(t, []byte("refresh"), cfg.JWTRefreshSecret)
	assert.Equal(t, 5, cfg.AccessTTLMin)
	assert.Equal(t, 60, cfg.RefreshTTLMin)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTAccessSecret:  []byte("a"),
		JWTRefreshSecret: []byte("r"),
		AccessTTLMin:     15,
		RefreshTTLMin:    60,
		DatabaseDriver:   "postgres",
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no access secret", mutate: func(c *Config) { c.JWTAccessSecret = nil }},
		{name: "no refresh secret", mutate: func(c *Config) { c.JWTRefreshSecret = nil }},
		{name: "shared secret", mutate: func(c *Config) { c.JWTRefreshSecret = []byte("a") }},
		{name: "zero ttl", mutate: func(c *Config) { c.AccessTTLMin = 0 }},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
