package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/middleware"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.GET("/things/:id", func(c *gin.Context) {
		log.Info(c.Request.Context(), "inside handler")
		c.Status(http.StatusTeapot)
	})

	req, _ := http.NewRequest("GET", "/things/1", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))

	assert.Equal(t, "req-42", inner["request_id"])
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "/things/:id", access["path"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
	assert.Equal(t, "warn", access["level"])
}

func TestRequestLogger_GeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.Nop()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
}
