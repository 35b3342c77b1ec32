package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/content"
)

func TestMemoryContentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("WriteThenOpen", func(t *testing.T) {
		store := NewStore()
		id := content.NewID()

		n, err := store.Write(ctx, id, strings.NewReader("hello drive"))
		require.NoError(t, err)
		assert.Equal(t, int64(11), n)

		rc, err := store.Open(ctx, id)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello drive", string(data))
	})

	t.Run("WriteReplacesContent", func(t *testing.T) {
		store := NewStore()
		id := content.NewID()

		_, err := store.Write(ctx, id, strings.NewReader("first"))
		require.NoError(t, err)
		_, err = store.Write(ctx, id, strings.NewReader("second"))
		require.NoError(t, err)

		size, err := store.Size(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(len("second")), size)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		store := NewStore()

		_, err := store.Open(ctx, content.NewID())
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("SizeMissing", func(t *testing.T) {
		store := NewStore()

		_, err := store.Size(ctx, content.NewID())
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		store := NewStore()
		id := content.NewID()

		_, err := store.Write(ctx, id, strings.NewReader("bytes"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id))
		require.NoError(t, store.Delete(ctx, id))

		_, err = store.Open(ctx, id)
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("ThumbnailNamespaceIsDistinct", func(t *testing.T) {
		fileID := content.NewID()
		thumbID := content.NewThumbnailID()
		assert.True(t, strings.HasPrefix(string(fileID), "files/"))
		assert.True(t, strings.HasPrefix(string(thumbID), "thumbs/"))
	})
}
