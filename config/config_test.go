package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "chat-app:mock-backend", cfg.Store.DocumentKey)
	assert.Equal(t, "chat-app:session-user-id", cfg.Store.SessionKey)
	assert.Equal(t, "US", cfg.Phone.DefaultRegion)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6390")
	t.Setenv("PASSWORD_COST", "4")
	t.Setenv("PHONE_DEFAULT_REGION", "in")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Store.PasswordCost)
	assert.Equal(t, "IN", cfg.Phone.DefaultRegion)
	assert.EqualValues(t, 10, cfg.Database.MaxConns)
}

func TestValidate(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "etcd")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORE_SESSION_KEY", "chat-app:mock-backend")
	_, err = Load()
	require.Error(t, err)
}

func TestValidatePasswordCost(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	for _, cost := range []string{"3", "32"} {
		t.Setenv("PASSWORD_COST", cost)
		_, err := Load()
		require.Error(t, err, cost)
		assert.Contains(t, err.Error(), "PASSWORD_COST")
	}
	t.Setenv("PASSWORD_COST", "31")
	_, err := Load()
	require.NoError(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "1", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable", c.DSN())
	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}
