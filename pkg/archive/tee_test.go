package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, string, []byte) (*SaveResult, error) {
	return nil, f.err
}

func TestTee(t *testing.T) {
	ctx := context.Background()

	t.Run("no mirrors returns primary", func(t *testing.T) {
		primary := NewLocalStore(afero.NewMemMapFs(), "/exports")
		assert.Same(t, primary, NewTee(primary))
	})

	t.Run("writes primary and mirrors", func(t *testing.T) {
		fake := newFakeS3()
		primaryFs := afero.NewMemMapFs()
		store := NewTee(
			NewLocalStore(primaryFs, "/exports"),
			newS3Store(fake, &S3Config{Region: "us-east-1", Bucket: "archives"}, nil),
		)

		result, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.NoError(t, err)
		assert.Equal(t, "/exports/HELLO-01.00.0000.iar", result.Location)
		assert.Equal(t, []byte("v1"), fake.objects["HELLO-01.00.0000.iar"])
	})

	t.Run("mirror failure fails the save", func(t *testing.T) {
		primaryFs := afero.NewMemMapFs()
		store := NewTee(
			NewLocalStore(primaryFs, "/exports"),
			failingStore{err: errors.New("bucket unavailable")},
		)

		result, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket unavailable")
		require.NotNil(t, result)

		exists, err := afero.Exists(primaryFs, "/exports/HELLO-01.00.0000.iar")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("primary failure skips mirrors", func(t *testing.T) {
		fake := newFakeS3()
		store := NewTee(
			failingStore{err: errors.New("disk full")},
			newS3Store(fake, &S3Config{Region: "us-east-1", Bucket: "archives"}, nil),
		)

		_, err := store.Save(ctx, "HELLO-01.00.0000.iar", []byte("v1"))
		require.Error(t, err)
		assert.Empty(t, fake.calls)
	})
}
