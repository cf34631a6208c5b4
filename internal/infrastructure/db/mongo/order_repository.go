package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	col *mongo.Collection
	seq *Sequence
}

func NewOrderRepository(db *mongo.Database, seq *Sequence) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders), seq: seq}
}

// Create assigns the next order id and inserts the document at version 1.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	id, err := r.seq.Next(ctx, collectionOrders)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	o.ID = id
	o.Version = 1
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	normalize(&o)
	return &o, nil
}

// Update writes every mutable field in one UpdateOne guarded by the version
// the caller read. If another writer got there first nothing is changed and
// domain.ErrStaleOrder is returned.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"priority":       o.Priority,
		"delivery_files": o.DeliveryFiles,
		"updated_at":     o.UpdatedAt,
	}
	unset := bson.M{}
	if o.AssignedTo != nil {
		set["assigned_to"] = *o.AssignedTo
	} else {
		unset["assigned_to"] = ""
	}
	if o.Feedback != nil {
		set["feedback"] = o.Feedback
	} else {
		unset["feedback"] = ""
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": o.ID, "version": o.Version}, update)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": o.ID})
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if n == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrStaleOrder
	}

	o.Version++
	return nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, orderFilter(f), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	var orders []*domain.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for _, o := range orders {
		normalize(o)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func orderFilter(f ports.ListOrdersFilter) bson.M {
	filter := bson.M{}
	if f.UserID != 0 {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AssignedTo != nil {
		filter["assigned_to"] = *f.AssignedTo
	}
	if f.VisibleTo != nil {
		// null also matches documents without the field.
		filter["$or"] = bson.A{
			bson.M{"assigned_to": nil},
			bson.M{"assigned_to": *f.VisibleTo},
		}
	}
	return filter
}

// normalize restores the empty lists that BSON round-trips as null.
func normalize(o *domain.Order) {
	if o.Options == nil {
		o.Options = []domain.Option{}
	}
	if o.DeliveryFiles == nil {
		o.DeliveryFiles = []domain.DeliveryFile{}
	}
}
