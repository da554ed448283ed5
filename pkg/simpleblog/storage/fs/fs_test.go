package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog/storage/fs"
)

func TestFilesystemBackend(t *testing.T) {
	backend, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("RequiresBaseDir", func(t *testing.T) {
		_, err := fs.New(fs.Config{})
		assert.Error(t, err)
	})

	t.Run("UploadAndDownload", func(t *testing.T) {
		err := backend.Upload(ctx, "posts/abc/image", "image/png", strings.NewReader("data"))
		require.NoError(t, err)

		reader, err := backend.Download(ctx, "posts/abc/image")
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "data", string(data))
	})

	t.Run("DownloadMissing", func(t *testing.T) {
		_, err := backend.Download(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, "doomed", "text/plain", strings.NewReader("x")))
		require.NoError(t, backend.Delete(ctx, "doomed"))

		_, err := backend.Download(ctx, "doomed")
		assert.Error(t, err)
	})

	t.Run("DownloadURL", func(t *testing.T) {
		_, err := backend.GetDownloadURL(ctx, "key")
		assert.Error(t, err)

		withPrefix, err := fs.New(fs.Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost:8080/files"})
		require.NoError(t, err)

		url, err := withPrefix.GetDownloadURL(ctx, "posts/abc/image")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/files/posts/abc/image", url)
	})
}
