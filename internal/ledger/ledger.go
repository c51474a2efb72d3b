// Package ledger persists the per-SKU list of processing results. Writes
// replace any previous ledger for the SKU; concurrent runs for the same SKU
// are not coordinated.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"photo-sku-backend/internal/models"
)

var ErrNotFound = errors.New("ledger not found")

type Store interface {
	Write(ctx context.Context, ledger *models.BatchLedger) error
	Read(ctx context.Context, sku string) (*models.BatchLedger, error)
	Delete(ctx context.Context, sku string) error
}

func encode(l *models.BatchLedger) ([]byte, error) {
	if l == nil || l.SKU == "" {
		return nil, errors.New("ledger sku is required")
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*models.BatchLedger, error) {
	var l models.BatchLedger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return &l, nil
}
