package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/voicemail-store/internal/database"
)

func TestFactory_CachesByConnectionString(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(database.NewRegistry(nil), WithMessageOptions(MessageOptions{BatchSize: 10}))
	defer f.Close()

	a := database.Config{ConnectionString: filepath.Join(dir, "a.db")}
	b := database.Config{ConnectionString: filepath.Join(dir, "b.db")}

	r1, err := f.Get(a)
	require.NoError(t, err)
	r2, err := f.Get(a)
	require.NoError(t, err)
	r3, err := f.Get(b)
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	assert.NotSame(t, r1, r3)
	assert.NotSame(t, r1.Provider, r3.Provider)
	assert.Equal(t, database.ProviderSQLite, r1.Provider.Name())
	assert.Equal(t, 10, r1.Message.(*messageRepository).opts.BatchSize)
}

func TestFactory_SharesProviderWithRegistry(t *testing.T) {
	registry := database.NewRegistry(nil)
	f := NewFactory(registry)
	defer f.Close()

	cfg := database.Config{ConnectionString: filepath.Join(t.TempDir(), "vm.db")}
	repos, err := f.Get(cfg)
	require.NoError(t, err)
	provider, err := registry.Get(cfg)
	require.NoError(t, err)

	assert.Same(t, provider, repos.Provider)
}

func TestRepositories_CreateSchemaIsRepeatable(t *testing.T) {
	f := NewFactory(database.NewRegistry(nil))
	defer f.Close()

	repos, err := f.Get(database.Config{ConnectionString: filepath.Join(t.TempDir(), "vm.db")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repos.CreateSchema(ctx))
	require.NoError(t, repos.CreateSchema(ctx))

	err = repos.Folder.CreateIndexes(ctx)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))
}
