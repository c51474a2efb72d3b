// Package storage keeps uploaded originals and processed outputs, namespaced
// by SKU. Locations have the form "{sku}/{name}".
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid storage path")
)

type Object struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
}

type Store interface {
	Read(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, sku, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
	List(ctx context.Context, sku string) ([]Object, error)
	DeleteSKU(ctx context.Context, sku string) error
	PublicURL(sku, name string) string
}

// Pruner is implemented by stores that can expire whole SKU namespaces.
type Pruner interface {
	PruneOlderThan(ctx context.Context, maxAge time.Duration) ([]string, error)
}

// Location joins sku and name after validating both.
func Location(sku, name string) (string, error) {
	if err := validSegment(sku); err != nil {
		return "", err
	}
	if err := validSegment(name); err != nil {
		return "", err
	}
	return sku + "/" + name, nil
}

// SplitLocation is the inverse of Location.
func SplitLocation(location string) (sku, name string, err error) {
	parts := strings.Split(location, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, location)
	}
	if _, err := Location(parts[0], parts[1]); err != nil {
		return "", "", err
	}
	return parts[0], parts[1], nil
}

func validSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	return nil
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".json": "application/json",
	".zip":  "application/zip",
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
