package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"timebank/internal/domain/workday"
)

type settingsDoc struct {
	UserID               string           `bson:"_id"`
	WeeklyHours          float64          `bson:"weekly_hours"`
	Workdays             workday.Workdays `bson:"workdays"`
	TimeBankAdjustmentMs int64            `bson:"time_bank_adjustment_ms"`
	Use12Hour            bool             `bson:"use_12_hour"`
	ClockInReminder      bool             `bson:"clock_in_reminder"`
	BreakReminder        bool             `bson:"break_reminder"`
	ClockOutReminder     bool             `bson:"clock_out_reminder"`
	WorkStartTime        string           `bson:"work_start_time"`
	BreakMinutes         int              `bson:"break_minutes"`
	UpdatedAt            time.Time        `bson:"updated_at"`
}

func toDoc(userID string, s workday.Settings) settingsDoc {
	return settingsDoc{
		UserID:               userID,
		WeeklyHours:          s.WeeklyHours,
		Workdays:             s.Workdays,
		TimeBankAdjustmentMs: s.TimeBankAdjustment.Milliseconds(),
		Use12Hour:            s.Use12Hour,
		ClockInReminder:      s.ClockInReminder,
		BreakReminder:        s.BreakReminder,
		ClockOutReminder:     s.ClockOutReminder,
		WorkStartTime:        s.WorkStartTime,
		BreakMinutes:         s.BreakMinutes,
		UpdatedAt:            time.Now().UTC(),
	}
}

func (d settingsDoc) settings() workday.Settings {
	return workday.Settings{
		WeeklyHours:        d.WeeklyHours,
		Workdays:           d.Workdays,
		TimeBankAdjustment: time.Duration(d.TimeBankAdjustmentMs) * time.Millisecond,
		Use12Hour:          d.Use12Hour,
		ClockInReminder:    d.ClockInReminder,
		BreakReminder:      d.BreakReminder,
		ClockOutReminder:   d.ClockOutReminder,
		WorkStartTime:      d.WorkStartTime,
		BreakMinutes:       d.BreakMinutes,
	}
}

// MongoStore keeps one document per user keyed by the user id.
type MongoStore struct {
	settings *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{settings: coll}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*workday.Settings, error) {
	var doc settingsDoc
	err := s.settings.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	out := doc.settings()
	return &out, nil
}

func (s *MongoStore) Save(ctx context.Context, userID string, settings workday.Settings) error {
	_, err := s.settings.ReplaceOne(ctx, bson.M{"_id": userID}, toDoc(userID, settings), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *MongoStore) ListWithReminders(ctx context.Context) ([]UserSettings, error) {
	cursor, err := s.settings.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"clock_in_reminder": true},
		bson.M{"break_reminder": true},
		bson.M{"clock_out_reminder": true},
	}})
	if err != nil {
		return nil, fmt.Errorf("find reminder settings: %w", err)
	}
	var docs []settingsDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reminder settings: %w", err)
	}
	out := make([]UserSettings, 0, len(docs))
	for _, d := range docs {
		out = append(out, UserSettings{UserID: d.UserID, Settings: d.settings()})
	}
	return out, nil
}
