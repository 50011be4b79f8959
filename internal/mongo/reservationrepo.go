package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opentabclub/opentab/internal/floor"
)

type ReservationRepo struct {
	collection *mongo.Collection
}

func NewReservationRepo(db *mongo.Database) *ReservationRepo {
	return &ReservationRepo{
		collection: db.Collection("reservations"),
	}
}

func (r *ReservationRepo) EnsureIndexes(ctx context.Context) error {
	tableIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "start_time", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, tableIndex); err != nil {
		return fmt.Errorf("cannot create table/start index: %w", err)
	}
	return nil
}

func (r *ReservationRepo) Create(ctx context.Context, reservation *floor.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("cannot create reservation: %w", err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID) (*floor.Reservation, error) {
	var reservation floor.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *ReservationRepo) List(ctx context.Context) ([]*floor.Reservation, error) {
	return r.find(ctx, bson.M{})
}

func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]*floor.Reservation, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	filter := bson.M{
		"start_time": bson.M{
			"$gte": day,
			"$lt":  day.Add(24 * time.Hour),
		},
	}
	return r.find(ctx, filter)
}

func (r *ReservationRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*floor.Reservation, error) {
	return r.find(ctx, bson.M{"table_id": tableID})
}

func (r *ReservationRepo) Save(ctx context.Context, reservation *floor.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	reservation.UpdatedAt = time.Now()

	filter := bson.M{"_id": reservation.ID}
	update := bson.M{"$set": reservation}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("reservation not found")
	}
	return nil
}

func (r *ReservationRepo) find(ctx context.Context, filter bson.M) ([]*floor.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*floor.Reservation
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode reservations: %w", err)
	}

	return result, nil
}
