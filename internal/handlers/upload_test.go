package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-sku-backend/internal/models"
)

func TestUpload_AcceptsAndSniffs(t *testing.T) {
	h := newHarness(t, editRemover{})

	w := h.upload(t, "123456",
		uploadFile{name: "front.jpg", data: jpegBytes},
		uploadFile{name: "back", data: pngBytes},
		uploadFile{name: "clip.mp4", contentType: "video/mp4", data: []byte("....ftypisom")},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.UploadResponse](t, w)
	assert.Equal(t, "123456", resp.SKU)
	assert.Empty(t, resp.Rejected)
	require.Len(t, resp.Files, 3)

	assert.Equal(t, models.KindImage, resp.Files[0].Kind)
	assert.Equal(t, "image/jpeg", resp.Files[0].ContentType)
	assert.Equal(t, "front.jpg", resp.Files[0].OriginalName)
	assert.True(t, strings.HasPrefix(resp.Files[0].SourceLocation, "123456/src_"))
	assert.True(t, strings.HasSuffix(resp.Files[0].SourceLocation, ".jpg"))

	assert.Equal(t, "image/png", resp.Files[1].ContentType)
	assert.True(t, strings.HasSuffix(resp.Files[1].SourceLocation, ".png"), "extension comes from the sniffed type")

	assert.Equal(t, models.KindVideo, resp.Files[2].Kind)
	assert.NotEqual(t, resp.Files[0].ID, resp.Files[1].ID)

	data, err := h.store.Read(context.Background(), resp.Files[0].SourceLocation)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
}

func TestUpload_RejectsUnsupportedAndOversized(t *testing.T) {
	h := newHarness(t, editRemover{})

	w := h.upload(t, "123456",
		uploadFile{name: "front.jpg", data: jpegBytes},
		uploadFile{name: "notes.txt", data: []byte("plain text notes")},
		uploadFile{name: "huge.jpg", contentType: "image/jpeg", data: make([]byte, 2048)},
	)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.UploadResponse](t, w)
	require.Len(t, resp.Files, 1)
	require.Len(t, resp.Rejected, 2)
	assert.Equal(t, "notes.txt", resp.Rejected[0].Name)
	assert.Contains(t, resp.Rejected[0].Reason, "unsupported content type")
	assert.Equal(t, "huge.jpg", resp.Rejected[1].Name)
	assert.Contains(t, resp.Rejected[1].Reason, "exceeds")
}

func TestUpload_AllRejected(t *testing.T) {
	h := newHarness(t, editRemover{})

	w := h.upload(t, "123456", uploadFile{name: "notes.txt", data: []byte("plain text")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode[models.UploadResponse](t, w).Rejected, 1)
}

func TestUpload_ValidatesSKU(t *testing.T) {
	h := newHarness(t, editRemover{})

	w := h.upload(t, "ABC", uploadFile{name: "front.jpg", data: jpegBytes})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[models.ErrorResponse](t, w).Code)

	w = h.upload(t, "", uploadFile{name: "front.jpg", data: jpegBytes})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload(t, "123456")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
