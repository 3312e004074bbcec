package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const eventsCollection = "verification_events"

// VerificationEventRepository implements ports.VerificationEventRepository using MongoDB.
type VerificationEventRepository struct {
	coll *mongo.Collection
}

var _ ports.VerificationEventRepository = (*VerificationEventRepository)(nil)

// NewVerificationEventRepository creates a new VerificationEventRepository.
func NewVerificationEventRepository(db *mongo.Database) *VerificationEventRepository {
	return &VerificationEventRepository{coll: db.Collection(eventsCollection)}
}

// InsertEvent appends one stage transition to the verification_events audit collection.
func (r *VerificationEventRepository) InsertEvent(ctx context.Context, event *domain.VerificationEvent) error {
	doc := bson.M{
		"user_id":     event.UserID,
		"session_id":  event.SessionID,
		"stage":       string(event.Stage),
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.ClientID != "" {
		doc["client_id"] = event.ClientID
	}
	if event.Message != "" {
		doc["message"] = event.Message
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes indexes events by session and by user for support lookups.
func (r *VerificationEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		// Audit rows expire after 90 days.
		{Keys: bson.D{{Key: "recorded_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
