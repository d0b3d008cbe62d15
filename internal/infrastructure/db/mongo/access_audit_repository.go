package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

const accessAuditCollection = "access_audit"

// auditRetention bounds how long audit entries are kept.
const auditRetention = 180 * 24 * time.Hour

// AccessAuditRepository implements ports.AccessAuditRepository using MongoDB.
type AccessAuditRepository struct {
	coll *mongo.Collection
}

// NewAccessAuditRepository creates a new AccessAuditRepository.
func NewAccessAuditRepository(db *mongo.Database) *AccessAuditRepository {
	return &AccessAuditRepository{coll: db.Collection(accessAuditCollection)}
}

type mongoAccessEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Username  string             `bson:"username,omitempty"`
	Role      string             `bson:"role,omitempty"`
	Page      string             `bson:"page"`
	Outcome   string             `bson:"outcome"`
	Reason    string             `bson:"reason,omitempty"`
	Detail    string             `bson:"detail,omitempty"`
	RequestID string             `bson:"request_id,omitempty"`
	At        time.Time          `bson:"at"`
}

// indexModels are the lookup index by user and the retention TTL index.
func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("user_recent"),
		},
		{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetName("retention").SetExpireAfterSeconds(int32(auditRetention / time.Second)),
		},
	}
}

// EnsureIndexes creates indexModels on the collection.
func (r *AccessAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels())
	if err != nil {
		return fmt.Errorf("access audit indexes: %w", err)
	}
	return nil
}

// InsertAccessEvent appends one gate decision to the audit trail.
func (r *AccessAuditRepository) InsertAccessEvent(ctx context.Context, entry ports.AccessAuditEntry) error {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	doc := mongoAccessEvent{
		UserID:    entry.UserID,
		Username:  entry.Username,
		Role:      entry.Role,
		Page:      entry.Page,
		Outcome:   string(entry.Outcome),
		Reason:    string(entry.Reason),
		Detail:    entry.Detail,
		RequestID: entry.RequestID,
		At:        at.UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert access event: %w", err)
	}
	return nil
}

// RecentByUser returns the latest audit entries of one user, newest first.
func (r *AccessAuditRepository) RecentByUser(ctx context.Context, userID string, limit int64) ([]ports.AccessAuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find access events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAccessEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode access events: %w", err)
	}

	out := make([]ports.AccessAuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, toAuditEntry(d))
	}
	return out, nil
}

func toAuditEntry(d mongoAccessEvent) ports.AccessAuditEntry {
	return ports.AccessAuditEntry{
		UserID:    d.UserID,
		Username:  d.Username,
		Role:      d.Role,
		Page:      d.Page,
		Outcome:   domain.Outcome(d.Outcome),
		Reason:    domain.DenialReason(d.Reason),
		Detail:    d.Detail,
		RequestID: d.RequestID,
		At:        d.At,
	}
}
