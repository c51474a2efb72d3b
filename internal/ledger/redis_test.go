package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-sku-backend/internal/models"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := NewRedisStore(fake, time.Hour)

	l := &models.BatchLedger{
		SKU: "123456",
		Results: []models.ProcessResult{
			{ID: "a", OriginalName: "a.mp4", FinalName: "123456_001.mp4", Kind: models.KindVideo, Sequence: 1, Status: models.StatusSkipped},
		},
	}
	require.NoError(t, store.Write(ctx, l))
	assert.Equal(t, time.Hour, fake.ttls["photo:ledger:123456"])

	got, err := store.Read(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, l.Results, got.Results)

	require.NoError(t, store.Delete(ctx, "123456"))
	_, err = store.Read(ctx, "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RejectsEmptySKU(t *testing.T) {
	store := NewRedisStore(newFakeRedis(), 0)
	assert.Error(t, store.Write(context.Background(), &models.BatchLedger{}))
}
