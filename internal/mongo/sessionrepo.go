package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opentabclub/opentab/internal/cashier"
)

type SessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{
		collection: db.Collection("sessions"),
	}
}

// EnsureIndexes enforces the single-open-session rule at the storage layer.
func (r *SessionRepo) EnsureIndexes(ctx context.Context) error {
	openIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "branch_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": cashier.StatusOpen}),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, openIndex); err != nil {
		return fmt.Errorf("cannot create open session index: %w", err)
	}
	return nil
}

func (r *SessionRepo) Create(ctx context.Context, session *cashier.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("cannot create session: %w", err)
	}

	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*cashier.Session, error) {
	var session cashier.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepo) FindOpenByBranch(ctx context.Context, branchID string) (*cashier.Session, error) {
	var session cashier.Session
	filter := bson.M{"branch_id": branchID, "status": cashier.StatusOpen}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find open session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepo) ListByBranch(ctx context.Context, branchID string) ([]*cashier.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "open_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*cashier.Session
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode sessions: %w", err)
	}

	return result, nil
}

func (r *SessionRepo) Save(ctx context.Context, session *cashier.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}

	session.UpdatedAt = time.Now()

	filter := bson.M{"_id": session.ID}
	update := bson.M{"$set": session}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}
