package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// bucketClient is the subset of the storage-go client used here.
type bucketClient interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	DownloadFile(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) ([]byte, error)
	RemoveFile(bucketId string, paths []string) ([]storage_go.FileUploadResponse, error)
	ListFiles(bucketId string, queryPath string, options storage_go.FileSearchOptions) ([]storage_go.FileObject, error)
}

// SupabaseStore keeps objects in a Supabase Storage bucket under {sku}/{name}.
type SupabaseStore struct {
	client  bucketClient
	bucket  string
	baseURL string
}

func NewSupabaseStore(supabaseURL, serviceKey, bucket string) *SupabaseStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage_go.NewClient(baseURL+"/storage/v1", serviceKey, nil)
	return newSupabaseStore(client, baseURL, bucket)
}

func newSupabaseStore(client bucketClient, baseURL, bucket string) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *SupabaseStore) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := SplitLocation(location); err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, location)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

func (s *SupabaseStore) Write(ctx context.Context, sku, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	location, err := Location(sku, name)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = ContentTypeFor(name)
	}
	upsert := true
	_, err = s.client.UploadFile(s.bucket, location, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return location, nil
}

func (s *SupabaseStore) Delete(_ context.Context, location string) error {
	if _, _, err := SplitLocation(location); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{location}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *SupabaseStore) List(_ context.Context, sku string) ([]Object, error) {
	if err := validSegment(sku); err != nil {
		return nil, err
	}
	files, err := s.client.ListFiles(s.bucket, sku+"/", storage_go.FileSearchOptions{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	objects := make([]Object, 0, len(files))
	for _, f := range files {
		if f.Name == "" || strings.HasPrefix(f.Name, ".") {
			continue
		}
		objects = append(objects, Object{Name: f.Name, Location: sku + "/" + f.Name})
	}
	return objects, nil
}

func (s *SupabaseStore) DeleteSKU(ctx context.Context, sku string) error {
	objects, err := s.List(ctx, sku)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return nil
	}
	paths := make([]string, len(objects))
	for i, o := range objects {
		paths[i] = o.Location
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(sku, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s/%s", s.baseURL, s.bucket, sku, name)
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
