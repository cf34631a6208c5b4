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

var _ ports.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	col *mongo.Collection
	seq *Sequence
}

func NewMessageRepository(db *mongo.Database, seq *Sequence) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages), seq: seq}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	id, err := r.seq.Next(ctx, collectionMessages)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	m.ID = id
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByOrder returns the thread oldest first.
func (r *MessageRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := []*domain.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}
