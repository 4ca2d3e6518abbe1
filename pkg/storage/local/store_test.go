package local

import (
	"context"
	"strings"
	"testing"

	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{
		RootDir:       t.TempDir(),
		PublicBaseURL: "/documents",
	}, nil)
	require.NoError(t, err)
	return store
}

func TestStoreSaveReadDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	key, err := store.Save(ctx, storage.CategorySignature, "receiver.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "signatures/"))
	require.True(t, strings.HasSuffix(key, ".png"))

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)

	require.Equal(t, "/documents/"+key, store.PublicURL(key))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Read(ctx, key)
	require.Error(t, err)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, storage.Category("bogus"), "x.bin", []byte("x"))
	require.Error(t, err)

	_, err = store.Save(ctx, storage.CategoryProofPhoto, "x.jpg", nil)
	require.Error(t, err)

	_, err = store.Read(ctx, "../outside")
	require.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	data, ext, err := storage.DecodeDataURL("data:image/png;base64,cG5nLWJ5dGVz")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
	require.Equal(t, ".png", ext)

	_, _, err = storage.DecodeDataURL("image/png;base64,xx")
	require.Error(t, err)

	_, _, err = storage.DecodeDataURL("data:image/png;base64,!!!")
	require.Error(t, err)

	_, _, err = storage.DecodeDataURL("data:text/html;base64,cG5n")
	require.Error(t, err)
}
