package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/storage"
)

type forgetRecorder struct{ skus []string }

func (f *forgetRecorder) Forget(sku string) { f.skus = append(f.skus, sku) }

type failingLedger struct{ ledger.Store }

func (failingLedger) Delete(context.Context, string) error { return errors.New("ledger offline") }

func newFixtures(t *testing.T) (*storage.LocalStore, *ledger.FileStore) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "http://localhost:8080")
	require.NoError(t, err)
	return store, ledger.NewFileStore(root)
}

func seedSKU(t *testing.T, store storage.Store, ledgers ledger.Store, sku string) *models.BatchLedger {
	t.Helper()
	ctx := context.Background()
	out, err := store.Write(ctx, sku, sku+"_001.jpg", []byte("cutout"), "image/jpeg")
	require.NoError(t, err)
	src, err := store.Write(ctx, sku, "src_v.mp4", []byte("video"), "video/mp4")
	require.NoError(t, err)

	l := &models.BatchLedger{
		SKU: sku,
		Results: []models.ProcessResult{
			{ID: "v", OriginalName: "clip.mp4", FinalName: sku + "_001.mp4", Kind: models.KindVideo, Sequence: 1, Status: models.StatusSkipped, SourceLocation: src},
			{ID: "i", OriginalName: "front.jpg", FinalName: sku + "_002.jpg", Kind: models.KindImage, Sequence: 2, Status: models.StatusDone, OutputLocation: out},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, ledgers.Write(ctx, l))
	return l
}

func TestCleanupSKU(t *testing.T) {
	ctx := context.Background()
	store, ledgers := newFixtures(t)
	seedSKU(t, store, ledgers, "123456")
	forget := &forgetRecorder{}

	svc := NewCleanupService(store, ledgers, time.Hour, nil, forget)
	require.NoError(t, svc.CleanupSKU(ctx, "123456"))

	objects, err := store.List(ctx, "123456")
	require.NoError(t, err)
	assert.Empty(t, objects)
	_, err = ledgers.Read(ctx, "123456")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, []string{"123456"}, forget.skus)

	assert.NoError(t, svc.CleanupSKU(ctx, "123456"), "cleaning an empty SKU is a no-op")
}

func TestCleanupSKU_ContinuesAfterLedgerFailure(t *testing.T) {
	ctx := context.Background()
	store, ledgers := newFixtures(t)
	seedSKU(t, store, ledgers, "123456")

	svc := NewCleanupService(store, failingLedger{ledgers}, time.Hour, nil, nil)
	err := svc.CleanupSKU(ctx, "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger offline")

	objects, listErr := store.List(ctx, "123456")
	require.NoError(t, listErr)
	assert.Empty(t, objects, "files are removed even when the ledger delete fails")
}

func TestPruneExpired(t *testing.T) {
	ctx := context.Background()
	store, ledgers := newFixtures(t)
	seedSKU(t, store, ledgers, "111111")
	seedSKU(t, store, ledgers, "222222")

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), "111111"), old, old))

	forget := &forgetRecorder{}
	svc := NewCleanupService(store, ledgers, 24*time.Hour, nil, forget)
	pruned, err := svc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"111111"}, pruned)
	assert.Equal(t, []string{"111111"}, forget.skus)

	_, err = ledgers.Read(ctx, "222222")
	assert.NoError(t, err)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	store, ledgers := newFixtures(t)
	svc := NewCleanupService(store, ledgers, time.Hour, nil, nil)

	assert.Error(t, svc.Start("not a schedule"))

	require.NoError(t, svc.Start("@every 1h"))
	assert.Error(t, svc.Start("@every 1h"))
	svc.Stop(context.Background())
}
