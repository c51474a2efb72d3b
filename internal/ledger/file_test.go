package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
)

func sampleLedger(sku string, statuses ...models.ResultStatus) *models.BatchLedger {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	l := &models.BatchLedger{SKU: sku, CreatedAt: now, UpdatedAt: now}
	for i, st := range statuses {
		r := models.ProcessResult{
			ID:             "id-" + string(rune('a'+i)),
			OriginalName:   "IMG_" + string(rune('a'+i)) + ".png",
			Kind:           models.KindImage,
			Sequence:       i + 1,
			Status:         st,
			SourceLocation: sku + "/src_" + string(rune('a'+i)) + ".png",
		}
		if st == models.StatusError {
			r.Error = "remote server error"
		}
		l.Results = append(l.Results, r)
	}
	return l
}

func TestFileStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := ledger.NewFileStore(dir)

	want := sampleLedger("123456", models.StatusDone, models.StatusError)
	require.NoError(t, store.Write(ctx, want))

	_, err := os.Stat(filepath.Join(dir, "123456", "123456-process-info.json"))
	require.NoError(t, err)

	got, err := store.Read(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, want.SKU, got.SKU)
	assert.Equal(t, want.Results, got.Results)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestFileStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewFileStore(t.TempDir())

	require.NoError(t, store.Write(ctx, sampleLedger("123456", models.StatusError, models.StatusError)))
	require.NoError(t, store.Write(ctx, sampleLedger("123456", models.StatusDone)))

	got, err := store.Read(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	assert.Equal(t, models.StatusDone, got.Results[0].Status)
}

func TestFileStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewFileStore(t.TempDir())

	_, err := store.Read(ctx, "123456")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, store.Write(ctx, sampleLedger("123456", models.StatusDone)))
	require.NoError(t, store.Delete(ctx, "123456"))
	_, err = store.Read(ctx, "123456")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "123456"))
}

func TestFileStore_RejectsUnsafeSKU(t *testing.T) {
	store := ledger.NewFileStore(t.TempDir())
	_, err := store.Read(context.Background(), "../x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrNotFound)
}
