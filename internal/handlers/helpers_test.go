package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"photo-sku-backend/internal/config"
	"photo-sku-backend/internal/handlers"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/orchestrator"
	"photo-sku-backend/internal/packager"
	"photo-sku-backend/internal/progress"
	"photo-sku-backend/internal/services"
	"photo-sku-backend/internal/storage"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

// editRemover prefixes the image bytes, or fails with the error returned by
// fail for that input.
type editRemover struct {
	fail func(data []byte) error
}

func (r editRemover) RemoveBackground(_ context.Context, data []byte) ([]byte, error) {
	if r.fail != nil {
		if err := r.fail(data); err != nil {
			return nil, err
		}
	}
	return append([]byte("edited-"), data...), nil
}

type harness struct {
	router  *gin.Engine
	store   *storage.LocalStore
	ledgers *ledger.FileStore
	hub     *progress.Hub
}

type harnessOption func(*config.Config)

func withJWTSecret(secret string) harnessOption {
	return func(c *config.Config) { c.Auth.JWTSecret = secret }
}

func newHarness(t *testing.T, remover editRemover, opts ...harnessOption) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Upload:  config.UploadConfig{MaxFileSize: 1024, SKUPattern: `^\d{6}$`},
		Batch:   config.BatchConfig{MaxConcurrent: 2, MaxAttempts: 1},
		Storage: config.StorageConfig{Backend: config.StorageLocal},
		Ledger:  config.LedgerConfig{Backend: config.LedgerFile},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)
	ledgers := ledger.NewFileStore(dir)
	hub := progress.NewHub(16)

	scheduler := orchestrator.New(remover, store, ledgers,
		orchestrator.WithConcurrency(cfg.Batch.MaxConcurrent),
		orchestrator.WithObserver(hub),
	)
	cleanup := services.NewCleanupService(store, ledgers, 0, logger.Nop(), hub)
	delivery := services.NewDeliveryService(ledgers, packager.New(store), nil, cleanup, "", logger.Nop())

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Config:   cfg,
		Logger:   logger.Nop(),
		Store:    store,
		Ledgers:  ledgers,
		Runner:   scheduler,
		Hub:      hub,
		Delivery: delivery,
		Cleanup:  cleanup,
	})
	require.NoError(t, err)

	return &harness{router: router, store: store, ledgers: ledgers, hub: hub}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return h.do(req)
}

type uploadFile struct {
	name        string
	contentType string
	data        []byte
}

func (h *harness) upload(t *testing.T, sku string, files ...uploadFile) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("sku", sku))
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		if f.contentType != "" {
			header.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), strings.TrimSpace(w.Body.String()))
	return v
}
