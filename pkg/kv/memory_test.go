package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/pkg/kv"
	"github.com/huddle-app/backend/pkg/kv/kvtest"
)

func TestMemoryCompliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return kv.NewMemory() })
}

func TestSQLiteCompliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		s, err := kv.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	s, err := kv.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "chat-app:session-user-id", []byte("user-aisha")))
	require.NoError(t, s.Close())

	s, err = kv.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "chat-app:session-user-id")
	require.NoError(t, err)
	require.Equal(t, "user-aisha", string(got))
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	s, err := kv.Open(ctx, kv.Config{Driver: kv.DriverMemory}, kv.Deps{})
	require.NoError(t, err)
	require.IsType(t, &kv.Memory{}, s)

	s, err = kv.Open(ctx, kv.Config{Driver: kv.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}, kv.Deps{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = kv.Open(ctx, kv.Config{Driver: kv.DriverSQLite}, kv.Deps{})
	require.Error(t, err)

	_, err = kv.Open(ctx, kv.Config{Driver: kv.DriverRedis}, kv.Deps{})
	require.Error(t, err)

	_, err = kv.Open(ctx, kv.Config{Driver: "etcd"}, kv.Deps{})
	require.Error(t, err)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := kv.NewMemory()
	require.ErrorIs(t, m.Set(ctx, "k", []byte("v")), context.Canceled)
}
