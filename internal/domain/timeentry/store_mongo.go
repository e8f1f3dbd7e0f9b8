package timeentry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"timebank/internal/domain/workday"
)

type entryDoc struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"user_id"`
	StartTime time.Time  `bson:"start_time"`
	EndTime   *time.Time `bson:"end_time,omitempty"`
	Open      bool       `bson:"open"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func (d entryDoc) entry() workday.Entry {
	return workday.Entry{ID: d.ID, StartTime: d.StartTime, EndTime: d.EndTime}
}

// MongoStore keeps entries as documents. The partial unique index on
// user_id where open is true plays the role of the Postgres partial index.
type MongoStore struct {
	entries *mongo.Collection
}

func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("one_open_entry_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open": true}),
		},
	}); err != nil {
		return nil, fmt.Errorf("create time_entries indexes: %w", err)
	}
	return &MongoStore{entries: coll}, nil
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]workday.Entry, error) {
	cursor, err := s.entries.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find time entries: %w", err)
	}
	var docs []entryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode time entries: %w", err)
	}
	out := make([]workday.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entry())
	}
	return out, nil
}

func (s *MongoStore) Create(ctx context.Context, userID string, start time.Time) (workday.Entry, error) {
	doc := entryDoc{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start.UTC(),
		Open:      true,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := s.entries.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return workday.Entry{}, ErrOpenEntryExists
		}
		return workday.Entry{}, err
	}
	return workday.Entry{ID: doc.ID, StartTime: start}, nil
}

func (s *MongoStore) Update(ctx context.Context, userID string, entry workday.Entry) error {
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return ErrInvalidRange
	}
	set := bson.M{
		"start_time": entry.StartTime.UTC(),
		"open":       entry.EndTime == nil,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if entry.EndTime != nil {
		set["end_time"] = entry.EndTime.UTC()
	} else {
		update["$unset"] = bson.M{"end_time": ""}
	}

	res, err := s.entries.UpdateOne(ctx, bson.M{"_id": entry.ID, "user_id": userID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrOpenEntryExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.entries.DeleteMany(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
	return err
}
