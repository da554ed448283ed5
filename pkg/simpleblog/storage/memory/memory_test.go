package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	t.Run("UploadAndDownload", func(t *testing.T) {
		err := backend.Upload(ctx, "posts/1/image", "image/png", strings.NewReader("data"))
		require.NoError(t, err)

		reader, err := backend.Download(ctx, "posts/1/image")
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "data", string(data))
	})

	t.Run("UploadReplaces", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, "posts/1/image", "image/png", strings.NewReader("newer")))

		reader, err := backend.Download(ctx, "posts/1/image")
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "newer", string(data))
	})

	t.Run("DownloadMissing", func(t *testing.T) {
		_, err := backend.Download(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, "posts/1/image"))

		_, err := backend.Download(ctx, "posts/1/image")
		assert.Error(t, err)

		assert.Error(t, backend.Delete(ctx, "posts/1/image"))
	})

	t.Run("NoDownloadURL", func(t *testing.T) {
		_, err := backend.GetDownloadURL(ctx, "anything")
		assert.Error(t, err)
	})
}
