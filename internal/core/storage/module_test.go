package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
)

func TestConfigFromUnified(t *testing.T) {
	t.Run("nil uses defaults", func(t *testing.T) {
		cfg := ConfigFromUnified(nil)
		assert.Equal(t, filepath.Join("data", "meshsync.db"), cfg.Path)
		assert.False(t, cfg.InMemory)
	})

	t.Run("data dir", func(t *testing.T) {
		u := config.NewConfig()
		u.Storage.DataDir = "/var/lib/lairik"
		cfg := ConfigFromUnified(u)
		assert.Equal(t, "/var/lib/lairik/meshsync.db", cfg.Path)
	})

	t.Run("in memory", func(t *testing.T) {
		u := config.NewConfig()
		u.Storage.InMemory = true
		cfg := ConfigFromUnified(u)
		assert.True(t, cfg.InMemory)
		assert.Empty(t, cfg.Path)
		assert.NoError(t, cfg.Validate())
		assert.True(t, cfg.ToEngineConfig().InMemory)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), engine.ErrInvalidConfig)
	assert.NoError(t, DefaultConfig().WithPath(t.TempDir()).Validate())
}

func TestModule_Lifecycle(t *testing.T) {
	u := config.NewConfig()
	u.Storage.DataDir = t.TempDir()

	var eng engine.Engine
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(u),
		Module(),
		fx.Populate(&eng),
	)
	app.RequireStart()

	require.NotNil(t, eng)
	kvs := NewKVStore(eng, []byte("t/"))
	require.NoError(t, kvs.Put([]byte("k"), []byte("v")))

	app.RequireStop()

	_, err := eng.Get([]byte("k"))
	assert.True(t, engine.IsClosed(err))
}

func TestModule_InMemoryWithoutConfig(t *testing.T) {
	var eng engine.Engine
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{Storage: config.StorageConfig{InMemory: true}}),
		Module(),
		fx.Populate(&eng),
	)
	require.NoError(t, app.Err())
	require.NoError(t, app.Start(context.Background()))
	defer func() { _ = app.Stop(context.Background()) }()

	require.NoError(t, eng.Put([]byte("k"), []byte("v")))
}
