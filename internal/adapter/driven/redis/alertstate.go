package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// minMarkerTTL is the floor applied to every state marker so that a rule
// configured with a very short window still suppresses duplicates for a
// sensible interval.
const minMarkerTTL = 60

// AlertStateStore implements port.AlertStateStore with TTL'd marker keys.
// A marker's existence is the state; its value is informational only.
type AlertStateStore struct {
	client *redis.Client
}

// NewAlertStateStore creates a new alert-state store
func NewAlertStateStore(client *redis.Client) *AlertStateStore {
	return &AlertStateStore{client: client}
}

// SetAlert marks the rule as triggered for at least ttlSeconds.
func (s *AlertStateStore) SetAlert(ctx context.Context, ruleID string, ttlSeconds int) error {
	return s.setMarker(ctx, AlertStateKey(ruleID), "triggered", ttlSeconds)
}

// HasAlert reports whether the rule's triggered marker is still live.
func (s *AlertStateStore) HasAlert(ctx context.Context, ruleID string) (bool, error) {
	return s.exists(ctx, AlertStateKey(ruleID))
}

// SetRecovery marks the rule's recovery as notified for at least ttlSeconds.
func (s *AlertStateStore) SetRecovery(ctx context.Context, ruleID string, ttlSeconds int) error {
	return s.setMarker(ctx, RecoveryStateKey(ruleID), "recovered", ttlSeconds)
}

// HasRecovery reports whether the rule's recovery marker is still live.
func (s *AlertStateStore) HasRecovery(ctx context.Context, ruleID string) (bool, error) {
	return s.exists(ctx, RecoveryStateKey(ruleID))
}

func (s *AlertStateStore) setMarker(ctx context.Context, key, value string, ttlSeconds int) error {
	if ttlSeconds < minMarkerTTL {
		ttlSeconds = minMarkerTTL
	}
	if err := s.client.SetEx(ctx, key, value, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return fmt.Errorf("%w: setex %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *AlertStateStore) exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return n > 0, nil
}
