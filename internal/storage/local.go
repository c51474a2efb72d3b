package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// LocalStore keeps objects on disk under root/{sku}/{name}.
type LocalStore struct {
	root         string
	publicOrigin string
}

func NewLocalStore(root, publicOrigin string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root, publicOrigin: strings.TrimRight(publicOrigin, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(location string) (string, error) {
	sku, name, err := SplitLocation(location)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, sku, name), nil
}

func (s *LocalStore) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// Write stores data atomically and returns its location.
func (s *LocalStore) Write(ctx context.Context, sku, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	location, err := Location(sku, name)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, sku)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create sku directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", location, err)
	}
	return location, nil
}

// Delete removes the object; a missing object is not an error.
func (s *LocalStore) Delete(_ context.Context, location string) error {
	p, err := s.path(location)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", location, err)
	}
	return nil
}

func (s *LocalStore) List(_ context.Context, sku string) ([]Object, error) {
	if err := validSegment(sku); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, sku))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sku, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Name:     e.Name(),
			Location: sku + "/" + e.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

func (s *LocalStore) DeleteSKU(_ context.Context, sku string) error {
	if err := validSegment(sku); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.root, sku)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", sku, err)
	}
	return nil
}

func (s *LocalStore) PublicURL(sku, name string) string {
	return fmt.Sprintf("%s/api/v1/images/%s/%s", s.publicOrigin, url.PathEscape(sku), url.PathEscape(name))
}

// PruneOlderThan removes SKU directories not modified within maxAge and
// returns the SKUs it removed.
func (s *LocalStore) PruneOlderThan(ctx context.Context, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	var errs error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, multierr.Append(errs, err)
		}
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to prune %s: %w", e.Name(), err))
			continue
		}
		removed = append(removed, e.Name())
	}
	return removed, errs
}
