// Package mongo implements the rule and history repositories on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moniflow/moniflow/internal/core/domain"
)

const (
	rulesCollection   = "alert_rules"
	historyCollection = "alert_history"
)

// ruleDocument is the BSON shape of a stored rule. IDs are ObjectIDs on
// disk and hex strings everywhere else.
type ruleDocument struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty"`
	MetricName           string              `bson:"metric_name"`
	Tags                 map[string]string   `bson:"tags"`
	FieldName            string              `bson:"field_name"`
	Threshold            float64             `bson:"threshold"`
	DurationSeconds      int                 `bson:"duration_seconds"`
	Comparison           string              `bson:"comparison"`
	NotificationChannels []string            `bson:"notification_channels"`
	Recipients           map[string][]string `bson:"recipients"`
	UseRecoveryAlert     bool                `bson:"use_recovery_alert"`
	RecoverySeconds      *int                `bson:"recovery_seconds,omitempty"`
	Status               string              `bson:"status"`
	CreatedAt            time.Time           `bson:"created_at"`
}

// RuleRepository implements port.RuleRepository
type RuleRepository struct {
	collection *mongo.Collection
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{collection: db.Collection(rulesCollection)}
}

// Create inserts the rule and returns its generated hex id.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.AlertRule) (string, error) {
	doc := toDocument(rule)
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert alert rule: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert alert rule: unexpected id type %T", res.InsertedID)
	}
	rule.ID = oid.Hex()
	return rule.ID, nil
}

// FindByID returns the rule with the given hex id. A malformed id is
// indistinguishable from a missing rule to callers.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*domain.AlertRule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRuleNotFound
	}

	var doc ruleDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find alert rule: %w", err)
	}
	return toDomain(&doc), nil
}

// FindAll returns every stored rule, active or not. The evaluator filters
// by status itself.
func (r *RuleRepository) FindAll(ctx context.Context) ([]*domain.AlertRule, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*domain.AlertRule
	for cursor.Next(ctx) {
		var doc ruleDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode alert rule: %w", err)
		}
		rules = append(rules, toDomain(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	return rules, nil
}

// Delete removes the rule with the given hex id.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRuleNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete alert rule: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func toDocument(rule *domain.AlertRule) *ruleDocument {
	return &ruleDocument{
		MetricName:           rule.MetricName,
		Tags:                 rule.Tags,
		FieldName:            rule.FieldName,
		Threshold:            rule.Threshold,
		DurationSeconds:      rule.DurationSeconds,
		Comparison:           string(rule.Comparison),
		NotificationChannels: rule.NotificationChannels,
		Recipients:           rule.Recipients,
		UseRecoveryAlert:     rule.UseRecoveryAlert,
		RecoverySeconds:      rule.RecoverySeconds,
		Status:               string(rule.Status),
		CreatedAt:            rule.CreatedAt,
	}
}

func toDomain(doc *ruleDocument) *domain.AlertRule {
	return &domain.AlertRule{
		ID:                   doc.ID.Hex(),
		MetricName:           doc.MetricName,
		Tags:                 doc.Tags,
		FieldName:            doc.FieldName,
		Threshold:            doc.Threshold,
		DurationSeconds:      doc.DurationSeconds,
		Comparison:           domain.Comparison(doc.Comparison),
		NotificationChannels: doc.NotificationChannels,
		Recipients:           doc.Recipients,
		UseRecoveryAlert:     doc.UseRecoveryAlert,
		RecoverySeconds:      doc.RecoverySeconds,
		Status:               domain.RuleStatus(doc.Status),
		CreatedAt:            doc.CreatedAt,
	}
}
