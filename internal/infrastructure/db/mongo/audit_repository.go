package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.AuditRepository = (*AuditRepository)(nil)

// AuditRepository persists the append-only audit trail.
type AuditRepository struct {
	col *mongo.Collection
	seq *Sequence
}

func NewAuditRepository(db *mongo.Database, seq *Sequence) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit), seq: seq}
}

func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	id, err := r.seq.Next(ctx, collectionAudit)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	e.ID = id
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Latest returns at most limit entries, newest first.
func (r *AuditRepository) Latest(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	entries := []*domain.AuditEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}
	return entries, nil
}
