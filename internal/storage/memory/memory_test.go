package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
)

func TestFileStore_StoreAndDelete(t *testing.T) {
	store := New("http://cdn.test")

	obj, err := store.Store(context.Background(), storage.ObjectRef{
		ListingID: "listing-1",
		FileName:  "cover.png",
	}, storage.Upload{
		ContentType: "image/png",
		Size:        3,
		Data:        strings.NewReader("png"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.URL, "http://cdn.test/uploads/listing-1/"))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	assert.Equal(t, 0, store.Len())

	assert.Error(t, store.Delete(context.Background(), obj.Key))
}

func TestFileStore_InjectedErrors(t *testing.T) {
	store := New("http://cdn.test")
	store.StoreErr = errors.New("disk full")

	_, err := store.Store(context.Background(), storage.ObjectRef{ListingID: "l", FileName: "f.jpg"}, storage.Upload{})
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 0, store.Len())
}
