package local

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/storage/files"
)

func TestStorage_SaveOpen(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		ref, err := store.Save(ctx, "homework.pdf", strings.NewReader("content"))
		require.NoError(t, err)

		f, err := store.Open(ctx, ref)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("invalid file type", func(t *testing.T) {
		_, err := store.Save(ctx, "malware.exe", strings.NewReader("boom"))
		assert.ErrorIs(t, err, files.ErrInvalidFileType)
	})

	t.Run("missing ref", func(t *testing.T) {
		_, err := store.Open(ctx, "nope.pdf")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("ref cannot escape the root", func(t *testing.T) {
		_, err := store.Open(ctx, "../secret.pdf")
		assert.Error(t, err)
		_, err = store.Open(ctx, ".hidden")
		assert.Error(t, err)
	})
}
