package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-sku-backend/internal/logger"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{ServiceName: "photo-sku", Output: &buf})

	ctx := log.WithSKU(context.Background(), "123456")
	ctx = log.WithField(ctx, "item_id", "abc")
	log.Error(ctx, "remote call failed", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "photo-sku", entry["service"])
	assert.Equal(t, "123456", entry["sku"])
	assert.Equal(t, "abc", entry["item_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: zerolog.WarnLevel, Output: &buf})

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("nonsense"))
}
