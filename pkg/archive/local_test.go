package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSave(t *testing.T) {
	ctx := context.Background()

	t.Run("creates directory and file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewLocalStore(fs, "/exports/new")

		result, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.NoError(t, err)
		assert.Equal(t, "/exports/new/HELLO-01.00.0000.iar", result.Location)
		assert.Empty(t, result.Backup)

		data, err := afero.ReadFile(fs, result.Location)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)

		exists, err := afero.Exists(fs, result.Location+BackupSuffix)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("rotates single backup generation", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewLocalStore(fs, "/exports")

		_, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.NoError(t, err)

		result, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v2"))
		require.NoError(t, err)
		assert.Equal(t, "/exports/HELLO-01.00.0000.iar.bak", result.Backup)

		current, err := afero.ReadFile(fs, "/exports/HELLO-01.00.0000.iar")
		require.NoError(t, err)
		backup, err := afero.ReadFile(fs, "/exports/HELLO-01.00.0000.iar.bak")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), current)
		assert.Equal(t, []byte("v1"), backup)

		_, err = store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v3"))
		require.NoError(t, err)

		current, err = afero.ReadFile(fs, "/exports/HELLO-01.00.0000.iar")
		require.NoError(t, err)
		backup, err = afero.ReadFile(fs, "/exports/HELLO-01.00.0000.iar.bak")
		require.NoError(t, err)
		assert.Equal(t, []byte("v3"), current)
		assert.Equal(t, []byte("v2"), backup)
	})

	t.Run("read only filesystem fails", func(t *testing.T) {
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		store := NewLocalStore(fs, "/exports")

		_, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		store := NewLocalStore(afero.NewMemMapFs(), "/exports")
		_, err := store.Save(cctx, "HELLO-01.00.0000.iar", []byte("v1"))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestLocalStoreReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/imports/TESTINTEGRATION_01.00.0000.iar", []byte("payload"), 0o644))

	store := NewLocalStore(fs, "/exports")

	data, err := store.ReadFile("/imports/TESTINTEGRATION_01.00.0000.iar")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = store.ReadFile("/imports/missing.iar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.iar")
}
