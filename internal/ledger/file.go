package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/naming"
)

// FileName is the ledger's object name inside the SKU namespace.
func FileName(sku string) string {
	return sku + "-process-info.json"
}

// FileStore writes {dir}/{sku}/{sku}-process-info.json next to the SKU's files.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(sku string) (string, error) {
	if !naming.ValidSKU(sku) {
		return "", fmt.Errorf("invalid sku %q", sku)
	}
	return filepath.Join(s.dir, sku, FileName(sku)), nil
}

func (s *FileStore) Write(ctx context.Context, l *models.BatchLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return err
	}
	p, err := s.path(l.SKU)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (s *FileStore) Read(ctx context.Context, sku string) (*models.BatchLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(sku)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Delete(_ context.Context, sku string) error {
	p, err := s.path(sku)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}
