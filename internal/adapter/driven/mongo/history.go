package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// historyRetention is how long alert transitions stay queryable before
// the TTL monitor removes them.
const historyRetention = 30 * 24 * time.Hour

type historyDocument struct {
	RuleID     string            `bson:"rule_id"`
	MetricName string            `bson:"metric_name"`
	Tags       map[string]string `bson:"tags"`
	FieldName  string            `bson:"field_name"`
	Status     string            `bson:"status"`
	Timestamp  time.Time         `bson:"timestamp"`
}

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	collection *mongo.Collection
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{collection: db.Collection(historyCollection)}
}

// EnsureIndexes creates the TTL index that ages out history entries.
// Safe to call on every startup; Mongo treats it as idempotent.
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().
			SetExpireAfterSeconds(int32(historyRetention / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("create history ttl index: %w", err)
	}
	return nil
}

// Append records one alert transition.
func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	doc := historyDocument{
		RuleID:     entry.RuleID,
		MetricName: entry.MetricName,
		Tags:       entry.Tags,
		FieldName:  entry.FieldName,
		Status:     string(entry.Status),
		Timestamp:  entry.Timestamp,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}
