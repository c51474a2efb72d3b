package handlers

import (
	"net/http"
	"regexp"
	"sort"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/storage"
)

type FilesHandler struct {
	store      storage.Store
	skuPattern *regexp.Regexp
}

func NewFilesHandler(store storage.Store, skuPattern *regexp.Regexp) *FilesHandler {
	return &FilesHandler{store: store, skuPattern: skuPattern}
}

// ListFiles godoc
// @Summary     List stored files for a SKU
// @Description Returns originals and processed outputs currently held for the SKU, sorted by name.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       sku path string true "Product SKU"
// @Success     200 {object} models.FilesResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /files/{sku} [get]
func (h *FilesHandler) ListFiles(c *gin.Context) {
	sku, ok := validSKUParam(c, h.skuPattern)
	if !ok {
		return
	}

	objects, err := h.store.List(c.Request.Context(), sku)
	if err != nil {
		respondError(c, err)
		return
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })

	response := models.FilesResponse{SKU: sku, Files: make([]models.FileInfo, 0, len(objects))}
	for _, o := range objects {
		response.Files = append(response.Files, models.FileInfo{
			Name:     o.Name,
			Location: o.Location,
			Size:     o.Size,
			ModTime:  o.ModTime,
			URL:      h.store.PublicURL(sku, o.Name),
		})
	}
	c.JSON(http.StatusOK, response)
}

// ServeImage godoc
// @Summary     Serve a stored file
// @Description Returns the raw bytes of a stored original or processed output.
// @Tags        files
// @Produce     octet-stream
// @Param       sku path string true "Product SKU"
// @Param       file path string true "File name"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{sku}/{file} [get]
func (h *FilesHandler) ServeImage(c *gin.Context) {
	sku, ok := validSKUParam(c, h.skuPattern)
	if !ok {
		return
	}
	name := c.Param("file")

	location, err := storage.Location(sku, name)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.store.Read(c.Request.Context(), location)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, storage.ContentTypeFor(name), data)
}
