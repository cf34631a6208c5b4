package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.StatsRepository = (*StatsRepository)(nil)

// StatsRepository runs the dashboard aggregations. Revenue figures only
// include orders whose payment was confirmed.
type StatsRepository struct {
	orders *mongo.Collection
	users  *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{
		orders: db.Collection(collectionOrders),
		users:  db.Collection(collectionUsers),
	}
}

var matchConfirmed = bson.D{{Key: "$match", Value: bson.M{"payment_status": domain.PaymentConfirmed}}}

func (r *StatsRepository) RevenueTotals(ctx context.Context) (ports.RevenueTotals, error) {
	pipeline := mongo.Pipeline{
		matchConfirmed,
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"usd": bson.M{"$sum": "$price_usd"},
			"htg": bson.M{"$sum": "$price_htg"},
		}}},
	}

	var rows []struct {
		USD float64 `bson:"usd"`
		HTG float64 `bson:"htg"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return ports.RevenueTotals{}, fmt.Errorf("revenue totals: %w", err)
	}
	if len(rows) == 0 {
		return ports.RevenueTotals{}, nil
	}
	return ports.RevenueTotals{USD: rows[0].USD, HTG: rows[0].HTG}, nil
}

func (r *StatsRepository) CountOrders(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) CountByStatus(ctx context.Context) ([]ports.StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}

	out := make([]ports.StatusCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.StatusCount{Status: domain.OrderStatus(row.Status), Count: row.Count})
	}
	return out, nil
}

func (r *StatsRepository) RevenueByService(ctx context.Context) ([]ports.ServiceRevenue, error) {
	pipeline := mongo.Pipeline{
		matchConfirmed,
		{{Key: "$group", Value: bson.M{
			"_id":     "$service_id",
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$price_usd"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	var rows []struct {
		ServiceID string  `bson:"_id"`
		Count     int64   `bson:"count"`
		Revenue   float64 `bson:"revenue"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("revenue by service: %w", err)
	}

	out := make([]ports.ServiceRevenue, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.ServiceRevenue{ServiceID: row.ServiceID, Count: row.Count, Revenue: row.Revenue})
	}
	return out, nil
}

// DailyRevenue returns confirmed USD revenue per UTC day since the given time,
// oldest day first. Days without revenue are omitted.
func (r *StatsRepository) DailyRevenue(ctx context.Context, since time.Time) ([]ports.DailyRevenue, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"payment_status": domain.PaymentConfirmed,
			"created_at":     bson.M{"$gte": since.UTC()},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}},
			"revenue": bson.M{"$sum": "$price_usd"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	var rows []struct {
		Date    string  `bson:"_id"`
		Revenue float64 `bson:"revenue"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}

	out := make([]ports.DailyRevenue, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.DailyRevenue{Date: row.Date, Revenue: row.Revenue})
	}
	return out, nil
}

// ClientTotals counts clients, clients with more than one order, and clients
// registered since newSince.
func (r *StatsRepository) ClientTotals(ctx context.Context, newSince time.Time) (ports.ClientTotals, error) {
	var out ports.ClientTotals

	countCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.users.CountDocuments(countCtx, bson.M{"role": domain.RoleClient})
	if err != nil {
		return out, fmt.Errorf("count clients: %w", err)
	}
	fresh, err := r.users.CountDocuments(countCtx, bson.M{
		"role":       domain.RoleClient,
		"created_at": bson.M{"$gte": newSince.UTC()},
	})
	if err != nil {
		return out, fmt.Errorf("count new clients: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "orders": bson.M{"$sum": 1}}}},
		{{Key: "$match", Value: bson.M{"orders": bson.M{"$gt": 1}}}},
		{{Key: "$count", Value: "recurring"}},
	}
	var rows []struct {
		Recurring int64 `bson:"recurring"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return out, fmt.Errorf("recurring clients: %w", err)
	}

	out.TotalClients = total
	out.NewClients = fresh
	if len(rows) > 0 {
		out.RecurringClients = rows[0].Recurring
	}
	return out, nil
}

func (r *StatsRepository) aggregate(ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
