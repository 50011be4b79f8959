package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opentabclub/opentab/internal/order"
)

// terminalFilter matches orders that left the active set.
var terminalFilter = bson.M{
	"$or": bson.A{
		bson.M{"status": order.StatusDelivered},
		bson.M{"status": order.StatusCancelled},
		bson.M{"payment_status": order.PaymentPaid},
	},
}

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
	}
}

func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "table_id", Value: 1}}},
		{Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}
	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]*order.Order, error) {
	return r.find(ctx, bson.M{}, nil)
}

func (r *OrderRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error) {
	return r.find(ctx, bson.M{"table_id": tableID}, nil)
}

func (r *OrderRepo) ListByBranchAndRange(ctx context.Context, branchID string, start, end time.Time, asc bool) ([]*order.Order, error) {
	filter := bson.M{
		"created_at": bson.M{"$gte": start, "$lt": end},
	}
	if branchID != "" {
		filter["branch_id"] = branchID
	}

	direction := 1
	if !asc {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: direction}})

	return r.find(ctx, filter, opts)
}

func (r *OrderRepo) ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error) {
	filter := bson.M{
		"table_id": tableID,
		"$nor":     bson.A{terminalFilter},
	}
	return r.find(ctx, filter, nil)
}

func (r *OrderRepo) CountActiveByBranch(ctx context.Context, branchID string) (int, error) {
	filter := bson.M{
		"$nor": bson.A{terminalFilter},
	}
	if branchID != "" {
		filter["branch_id"] = branchID
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("cannot count active orders: %w", err)
	}
	return int(count), nil
}

func (r *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	o.UpdatedAt = time.Now()

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

func (r *OrderRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*order.Order, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}
