package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/internal/core/domain"
)

func newTestCache(t *testing.T) (*HotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHotCache(client, slog.Default()), mr
}

func TestHotCache_StoreAndQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("stored sample is queryable within the window", func(t *testing.T) {
		cache, _ := newTestCache(t)

		sample := domain.Sample{
			Measurement: "cpu_usage",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"usage": 91.5},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		require.NoError(t, cache.Store(ctx, sample))

		values, err := cache.Query(ctx, "cpu_usage", sample.Tags, "usage", 300)
		require.NoError(t, err)
		assert.Equal(t, []float64{91.5}, values)
	})

	t.Run("values outside the window are excluded", func(t *testing.T) {
		cache, _ := newTestCache(t)

		old := domain.Sample{
			Measurement: "cpu_usage",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"usage": 10},
			Timestamp:   time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339),
		}
		fresh := domain.Sample{
			Measurement: "cpu_usage",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"usage": 90},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		require.NoError(t, cache.Store(ctx, old))
		require.NoError(t, cache.Store(ctx, fresh))

		values, err := cache.Query(ctx, "cpu_usage", old.Tags, "usage", 300)
		require.NoError(t, err)
		assert.Equal(t, []float64{90}, values)
	})

	t.Run("multi-field sample lands under one key per field", func(t *testing.T) {
		cache, _ := newTestCache(t)

		sample := domain.Sample{
			Measurement: "mem",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"used": 70, "free": 30},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		require.NoError(t, cache.Store(ctx, sample))

		used, err := cache.Query(ctx, "mem", sample.Tags, "used", 60)
		require.NoError(t, err)
		assert.Equal(t, []float64{70}, used)

		free, err := cache.Query(ctx, "mem", sample.Tags, "free", 60)
		require.NoError(t, err)
		assert.Equal(t, []float64{30}, free)
	})

	t.Run("rejects malformed timestamp", func(t *testing.T) {
		cache, _ := newTestCache(t)

		sample := domain.Sample{
			Measurement: "cpu_usage",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"usage": 1},
			Timestamp:   "2025-02-26T12:00:00", // no zone
		}
		err := cache.Store(ctx, sample)
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})

	t.Run("defaults missing timestamp to now", func(t *testing.T) {
		cache, _ := newTestCache(t)

		sample := domain.Sample{
			Measurement: "cpu_usage",
			Tags:        map[string]string{"host": "server1"},
			Fields:      map[string]float64{"usage": 55},
		}
		require.NoError(t, cache.Store(ctx, sample))

		values, err := cache.Query(ctx, "cpu_usage", sample.Tags, "usage", 60)
		require.NoError(t, err)
		assert.Equal(t, []float64{55}, values)
	})

	t.Run("query validates parameters", func(t *testing.T) {
		cache, _ := newTestCache(t)

		_, err := cache.Query(ctx, "", map[string]string{"a": "1"}, "f", 60)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)

		_, err = cache.Query(ctx, "cpu", nil, "f", 60)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)

		_, err = cache.Query(ctx, "cpu", map[string]string{"a": "1"}, "f", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("backend error yields empty result", func(t *testing.T) {
		cache, mr := newTestCache(t)
		mr.Close()

		values, err := cache.Query(ctx, "cpu", map[string]string{"a": "1"}, "f", 60)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("store surfaces backend error", func(t *testing.T) {
		cache, mr := newTestCache(t)
		mr.Close()

		sample := domain.Sample{
			Measurement: "cpu",
			Tags:        map[string]string{"a": "1"},
			Fields:      map[string]float64{"f": 1},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		err := cache.Store(ctx, sample)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}

func TestHotCache_IngestList(t *testing.T) {
	ctx := context.Background()

	t.Run("fifo order", func(t *testing.T) {
		cache, _ := newTestCache(t)

		first := domain.Sample{Measurement: "a", Tags: map[string]string{"h": "1"}, Fields: map[string]float64{"f": 1}}
		second := domain.Sample{Measurement: "b", Tags: map[string]string{"h": "1"}, Fields: map[string]float64{"f": 2}}
		require.NoError(t, cache.PushIngest(ctx, first))
		require.NoError(t, cache.PushIngest(ctx, second))

		got, err := cache.PopIngest(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "a", got.Measurement)

		got, err = cache.PopIngest(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "b", got.Measurement)
	})

	t.Run("empty list pops nil", func(t *testing.T) {
		cache, _ := newTestCache(t)

		got, err := cache.PopIngest(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
