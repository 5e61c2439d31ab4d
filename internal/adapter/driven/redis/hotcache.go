package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/pkg/observability"
	"github.com/moniflow/moniflow/pkg/timeutil"
)

// HotCache implements port.HotCache on Redis sorted sets: one set per
// (measurement, tags, field) fingerprint, scored by integer UTC seconds,
// member = the value rendered as text. Duplicate (score, value) pairs
// collapse, which is the intended set semantics.
type HotCache struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHotCache creates a new hot-cache DAO
func NewHotCache(client *redis.Client, logger *slog.Logger) *HotCache {
	return &HotCache{
		client:  client,
		logger:  logger,
		metrics: observability.GetMetrics(),
	}
}

// Store writes every field of the sample under its fingerprint key. The
// timestamp is parsed strictly; an empty timestamp defaults to receipt
// time. Backend errors wrap domain.ErrStorageUnavailable and are not
// retried here.
func (c *HotCache) Store(ctx context.Context, sample domain.Sample) error {
	ts := sample.Timestamp
	if ts == "" {
		ts = timeutil.NowISO()
	}
	score, err := timeutil.ParseTimestamp(ts)
	if err != nil {
		return err
	}

	for field, value := range sample.Fields {
		key := MetricKey(sample.Measurement, sample.Tags, field)
		member := strconv.FormatFloat(value, 'f', -1, 64)

		if err := c.client.ZAdd(ctx, key, redis.Z{
			Score:  float64(score),
			Member: member,
		}).Err(); err != nil {
			c.metrics.CacheErrorsTotal.Inc()
			return fmt.Errorf("%w: zadd %s: %v", domain.ErrStorageUnavailable, key, err)
		}

		c.metrics.CacheWritesTotal.WithLabelValues(sample.Measurement).Inc()
		c.logger.Debug("cached sample", "key", key, "value", member, "score", score)
	}

	return nil
}

// Query returns the values stored for the fingerprint within the last
// durationSeconds, ascending by score. Backend errors are logged and
// yield an empty result so one flaky lookup cannot halt an evaluator
// tick.
func (c *HotCache) Query(ctx context.Context, metric string, tags map[string]string, field string, durationSeconds int) ([]float64, error) {
	if err := validateQuery(metric, tags, field, durationSeconds); err != nil {
		return nil, err
	}

	key := MetricKey(metric, tags, field)
	now := time.Now().Unix()
	min := now - int64(durationSeconds)

	members, err := c.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(min, 10),
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		c.metrics.CacheErrorsTotal.Inc()
		c.logger.Error("hot cache query failed", "key", key, "error", err)
		return []float64{}, nil
	}

	values := make([]float64, 0, len(members))
	for _, m := range members {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			// Non-numeric members are dropped before evaluation.
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// PushIngest appends a sample to the residual ingest list drained by the
// evaluator's periodic metrics pass.
func (c *HotCache) PushIngest(ctx context.Context, sample domain.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	if err := c.client.RPush(ctx, ingestListKey, payload).Err(); err != nil {
		return fmt.Errorf("%w: rpush %s: %v", domain.ErrStorageUnavailable, ingestListKey, err)
	}
	return nil
}

// PopIngest removes and returns the oldest sample from the ingest list,
// or nil when the list is empty.
func (c *HotCache) PopIngest(ctx context.Context) (*domain.Sample, error) {
	payload, err := c.client.LPop(ctx, ingestListKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lpop %s: %v", domain.ErrStorageUnavailable, ingestListKey, err)
	}

	var sample domain.Sample
	if err := json.Unmarshal([]byte(payload), &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

func validateQuery(metric string, tags map[string]string, field string, durationSeconds int) error {
	if metric == "" || field == "" {
		return domain.ErrInvalidQuery
	}
	if len(tags) == 0 {
		return domain.ErrInvalidQuery
	}
	if durationSeconds <= 0 {
		return domain.ErrInvalidQuery
	}
	return nil
}
