package ledger_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
)

// fakePostgREST answers the handful of PostgREST calls the ledger issues.
func fakePostgREST(t *testing.T) *httptest.Server {
	var mu sync.Mutex
	rows := map[string]json.RawMessage{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/batch_ledgers") {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		defer mu.Unlock()

		sku := strings.TrimPrefix(r.URL.Query().Get("sku"), "eq.")
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			var row struct {
				SKU string `json:"sku"`
			}
			require.NoError(t, json.Unmarshal(body, &row))
			rows[row.SKU] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			if row, ok := rows[sku]; ok {
				w.Write([]byte("[" + string(row) + "]"))
				return
			}
			w.Write([]byte("[]"))
		case http.MethodDelete:
			delete(rows, sku)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestSupabaseStore_RoundTrip(t *testing.T) {
	server := fakePostgREST(t)
	defer server.Close()

	ctx := context.Background()
	store, err := ledger.NewSupabaseStore(server.URL, "service-key", "batch_ledgers")
	require.NoError(t, err)

	_, err = store.Read(ctx, "123456")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	want := sampleLedger("123456", models.StatusDone, models.StatusError)
	require.NoError(t, store.Write(ctx, want))

	got, err := store.Read(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, want.Results, got.Results)

	require.NoError(t, store.Delete(ctx, "123456"))
	_, err = store.Read(ctx, "123456")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
