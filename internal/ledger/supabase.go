package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
	"photo-sku-backend/internal/models"
)

type ledgerRow struct {
	SKU       string                 `json:"sku"`
	Results   []models.ProcessResult `json:"results"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// SupabaseStore keeps ledgers in a table exposed through Supabase's REST API.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

func NewSupabaseStore(url, serviceKey, table string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client, table: table}, nil
}

func (s *SupabaseStore) Write(ctx context.Context, l *models.BatchLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.SKU == "" {
		return fmt.Errorf("ledger sku is required")
	}
	row := ledgerRow{SKU: l.SKU, Results: l.Results, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
	if _, _, err := s.client.From(s.table).Upsert(row, "sku", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Read(ctx context.Context, sku string) (*models.BatchLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.client.From(s.table).
		Select("sku,results,created_at,updated_at", "", false).
		Eq("sku", sku).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var rows []ledgerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	r := rows[0]
	return &models.BatchLedger{SKU: r.SKU, Results: r.Results, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, sku string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(s.table).Delete("minimal", "").Eq("sku", sku).Execute(); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}
