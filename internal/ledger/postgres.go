package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"photo-sku-backend/internal/models"
)

// PostgresStore keeps ledgers in the batch_ledgers table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Write(ctx context.Context, l *models.BatchLedger) error {
	if l == nil || l.SKU == "" {
		return errors.New("ledger sku is required")
	}
	results, err := json.Marshal(l.Results)
	if err != nil {
		return fmt.Errorf("failed to encode ledger results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO batch_ledgers (sku, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sku) DO UPDATE
		SET results = EXCLUDED.results,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, l.SKU, results, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, sku string) (*models.BatchLedger, error) {
	l := models.BatchLedger{SKU: sku}
	var results []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT results, created_at, updated_at
		FROM batch_ledgers
		WHERE sku = $1
	`, sku).Scan(&results, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if err := json.Unmarshal(results, &l.Results); err != nil {
		return nil, fmt.Errorf("failed to decode ledger results: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sku string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM batch_ledgers WHERE sku = $1`, sku); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}
