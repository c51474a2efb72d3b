package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage_go "github.com/supabase-community/storage-go"
)

type fakeBucket struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBucket) UploadFile(_ string, path string, data io.Reader, opts ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return storage_go.FileUploadResponse{}, err
	}
	f.objects[path] = buf.Bytes()
	if len(opts) > 0 && opts[0].ContentType != nil {
		f.types[path] = *opts[0].ContentType
	}
	return storage_go.FileUploadResponse{}, nil
}

func (f *fakeBucket) DownloadFile(_ string, path string, _ ...storage_go.UrlOptions) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("Object not found")
	}
	return data, nil
}

func (f *fakeBucket) RemoveFile(_ string, paths []string) ([]storage_go.FileUploadResponse, error) {
	for _, p := range paths {
		delete(f.objects, p)
	}
	return nil, nil
}

func (f *fakeBucket) ListFiles(_ string, prefix string, _ storage_go.FileSearchOptions) ([]storage_go.FileObject, error) {
	var files []storage_go.FileObject
	for p := range f.objects {
		if strings.HasPrefix(p, prefix) {
			files = append(files, storage_go.FileObject{Name: strings.TrimPrefix(p, prefix)})
		}
	}
	return files, nil
}

func TestSupabaseStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	store := newSupabaseStore(bucket, "https://proj.supabase.co/", "sku-photos")

	location, err := store.Write(ctx, "123456", "123456_002.jpg", []byte("edited"), "")
	require.NoError(t, err)
	assert.Equal(t, "123456/123456_002.jpg", location)
	assert.Equal(t, "image/jpeg", bucket.types[location])

	data, err := store.Read(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, []byte("edited"), data)

	_, err = store.Read(ctx, "123456/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/sku-photos/123456/123456_002.jpg",
		store.PublicURL("123456", "123456_002.jpg"))
}

func TestSupabaseStore_DeleteSKUUsesFullPaths(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	store := newSupabaseStore(bucket, "https://proj.supabase.co", "sku-photos")

	for _, name := range []string{"a.jpg", "b.mp4"} {
		_, err := store.Write(ctx, "123456", name, []byte(name), "")
		require.NoError(t, err)
	}
	_, err := store.Write(ctx, "654321", "c.jpg", []byte("c"), "")
	require.NoError(t, err)

	objects, err := store.List(ctx, "123456")
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	require.NoError(t, store.DeleteSKU(ctx, "123456"))
	assert.Len(t, bucket.objects, 1)
	assert.Contains(t, bucket.objects, "654321/c.jpg")
}
