package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/storage"
)

var allowedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/heic":      {},
	"image/heif":      {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/quicktime": {},
}

type UploadHandler struct {
	store       storage.Store
	maxFileSize int64
	skuPattern  *regexp.Regexp
	log         *logger.Logger
}

func NewUploadHandler(store storage.Store, maxFileSize int64, skuPattern *regexp.Regexp, log *logger.Logger) *UploadHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UploadHandler{
		store:       store,
		maxFileSize: maxFileSize,
		skuPattern:  skuPattern,
		log:         log,
	}
}

// Upload godoc
// @Summary     Upload product photos and videos for a SKU
// @Description Stores each accepted file under the SKU and returns the media items to submit to /process.
// @Description Files over MAX_FILE_SIZE or of an unsupported type are listed as rejected.
// @Description When the declared content type is missing the file contents are sniffed.
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       sku formData string true "Product SKU"
// @Param       files formData file true "Photos and videos (multiple files allowed)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.UploadResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		badRequest(c, "failed to parse multipart form", err)
		return
	}
	form := c.Request.MultipartForm

	sku := strings.TrimSpace(c.Request.FormValue("sku"))
	if sku == "" {
		badRequest(c, "sku is required", nil)
		return
	}
	if !h.skuPattern.MatchString(sku) {
		badRequest(c, fmt.Sprintf("sku %q does not match %s", sku, h.skuPattern), nil)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["files[]"]
	}
	if len(files) == 0 {
		badRequest(c, "no files provided", nil)
		return
	}

	ctx := h.log.WithSKU(c.Request.Context(), sku)
	response := models.UploadResponse{SKU: sku, Files: []models.MediaItem{}}
	for _, fh := range files {
		item, reason, err := h.storeFile(c, sku, fh)
		if err != nil {
			h.log.Error(ctx, "failed to store upload", err)
			respondError(c, err)
			return
		}
		if reason != "" {
			response.Rejected = append(response.Rejected, models.RejectedFile{Name: fh.Filename, Reason: reason})
			continue
		}
		response.Files = append(response.Files, item)
	}

	h.log.Zerolog(ctx).Info().
		Int("accepted", len(response.Files)).
		Int("rejected", len(response.Rejected)).
		Msg("upload stored")

	if len(response.Files) == 0 {
		c.JSON(http.StatusBadRequest, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// storeFile validates and stores one file. A non-empty reason means the file
// was rejected; err is reserved for storage failures.
func (h *UploadHandler) storeFile(c *gin.Context, sku string, fh *multipart.FileHeader) (models.MediaItem, string, error) {
	if fh.Size > h.maxFileSize {
		return models.MediaItem{}, fmt.Sprintf("file exceeds %d bytes", h.maxFileSize), nil
	}

	f, err := fh.Open()
	if err != nil {
		return models.MediaItem{}, "could not read file", nil
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		return models.MediaItem{}, "could not read file", nil
	}
	if int64(len(data)) > h.maxFileSize {
		return models.MediaItem{}, fmt.Sprintf("file exceeds %d bytes", h.maxFileSize), nil
	}
	if len(data) == 0 {
		return models.MediaItem{}, "file is empty", nil
	}

	contentType := baseType(fh.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = baseType(mimetype.Detect(data).String())
	}
	kind, ok := models.KindFromContentType(contentType)
	if _, allowed := allowedTypes[contentType]; !ok || !allowed {
		return models.MediaItem{}, fmt.Sprintf("unsupported content type %q", contentType), nil
	}

	id := uuid.NewString()
	ext := strings.ToLower(path.Ext(fh.Filename))
	if ext == "" {
		if mt := mimetype.Lookup(contentType); mt != nil {
			ext = mt.Extension()
		}
	}
	location, err := h.store.Write(c.Request.Context(), sku, "src_"+id+ext, data, contentType)
	if err != nil {
		return models.MediaItem{}, "", err
	}

	return models.MediaItem{
		ID:             id,
		OriginalName:   fh.Filename,
		Kind:           kind,
		SourceLocation: location,
		ContentType:    contentType,
	}, "", nil
}

func baseType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
