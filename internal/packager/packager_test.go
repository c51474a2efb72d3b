package packager_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/packager"
	"photo-sku-backend/internal/storage"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func seedStore(t *testing.T) (*storage.LocalStore, *models.BatchLedger) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	write := func(name, body string) string {
		loc, err := store.Write(ctx, "123456", name, []byte(body), "")
		require.NoError(t, err)
		return loc
	}

	ledger := &models.BatchLedger{
		SKU: "123456",
		Results: []models.ProcessResult{
			{ID: "v1", OriginalName: "clip.mp4", FinalName: "123456_001.mp4", Kind: models.KindVideo, Sequence: 1,
				Status: models.StatusSkipped, SourceLocation: write("src_v1.mp4", "video")},
			{ID: "i1", OriginalName: "front.jpg", FinalName: "123456_002.jpg", Kind: models.KindImage, Sequence: 2,
				Status: models.StatusDone, SourceLocation: "123456/src_i1.jpg", OutputLocation: write("123456_002.jpg", "cutout")},
			{ID: "i2", OriginalName: "back.png", FinalName: "123456_003.jpg", Kind: models.KindImage, Sequence: 3,
				Status: models.StatusError, Error: "server_error", SourceLocation: write("src_i2.png", "raw")},
		},
	}
	return store, ledger
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(body)
	}
	return files
}

func TestBuild_IncludesDeliverablesAndManifest(t *testing.T) {
	store, ledger := seedStore(t)
	p := packager.New(store, packager.WithClock(func() time.Time { return fixedNow }))

	archive, err := p.Build(context.Background(), ledger, packager.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"123456_001.mp4", "123456_002.jpg"}, archive.Files)
	assert.Equal(t, packager.ArchiveName("123456", fixedNow), archive.Name)

	files := readArchive(t, archive.Data)
	assert.Equal(t, "video", files["123456_001.mp4"])
	assert.Equal(t, "cutout", files["123456_002.jpg"])
	assert.NotContains(t, files, "originals/back.png")

	var manifest packager.Manifest
	require.NoError(t, json.Unmarshal([]byte(files[packager.ManifestName]), &manifest))
	assert.Equal(t, "123456", manifest.SKU)
	assert.True(t, manifest.CreatedAt.Equal(fixedNow))
	require.Len(t, manifest.Files, 3)
	assert.Equal(t, packager.ManifestEntry{
		ID: "i2", Original: "back.png", Final: "123456_003.jpg",
		Type: models.KindImage, Status: models.StatusError, Error: "server_error",
	}, manifest.Files[2])
}

func TestBuild_IncludeOriginals(t *testing.T) {
	store, ledger := seedStore(t)
	p := packager.New(store)

	archive, err := p.Build(context.Background(), ledger, packager.Options{IncludeOriginals: true})
	require.NoError(t, err)

	files := readArchive(t, archive.Data)
	assert.Equal(t, "raw", files["originals/back.png"])
	assert.Contains(t, archive.Files, "originals/back.png")
}

func TestBuild_CompressionLevel(t *testing.T) {
	store, ledger := seedStore(t)
	body := strings.Repeat("cutout", 4096)
	_, err := store.Write(context.Background(), "123456", "123456_002.jpg", []byte(body), "")
	require.NoError(t, err)

	stored, err := packager.New(store, packager.WithCompressionLevel(flate.NoCompression)).Build(context.Background(), ledger, packager.Options{})
	require.NoError(t, err)
	deflated, err := packager.New(store, packager.WithCompressionLevel(6)).Build(context.Background(), ledger, packager.Options{})
	require.NoError(t, err)

	assert.Greater(t, len(stored.Data), len(body))
	assert.Less(t, len(deflated.Data), len(body)/10)
	assert.Equal(t, body, readArchive(t, deflated.Data)["123456_002.jpg"])
}

func TestBuild_NothingToPackage(t *testing.T) {
	store, _ := seedStore(t)
	p := packager.New(store)

	_, err := p.Build(context.Background(), nil, packager.Options{})
	assert.ErrorIs(t, err, packager.ErrNothingToPackage)

	onlyErrors := &models.BatchLedger{SKU: "123456", Results: []models.ProcessResult{
		{ID: "x", OriginalName: "x.jpg", FinalName: "123456_001.jpg", Kind: models.KindImage, Status: models.StatusError},
	}}
	_, err = p.Build(context.Background(), onlyErrors, packager.Options{})
	assert.ErrorIs(t, err, packager.ErrNothingToPackage)
}

func TestBuild_MissingOutput(t *testing.T) {
	store, ledger := seedStore(t)
	ledger.Results[1].OutputLocation = "123456/gone.jpg"

	_, err := packager.New(store).Build(context.Background(), ledger, packager.Options{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArchiveName(t *testing.T) {
	name := packager.ArchiveName("123456", fixedNow)
	assert.Regexp(t, `^photo-sku-123456-\d{13}-[0-9a-f]{8}\.zip$`, name)
	assert.Equal(t, name, packager.ArchiveName("123456", fixedNow))
	assert.NotEqual(t, name, packager.ArchiveName("654321", fixedNow))
}
