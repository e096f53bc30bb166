package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.ActivityRepository = (*activityStore)(nil)

type activityStore struct {
	c *mongo.Collection
}

var newestFirst = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

func (s *activityStore) Create(ctx context.Context, a *model.UserActivity) error {
	a.ID = newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		a.ID = ""
		return fmt.Errorf("mongo: inserting activity: %w", err)
	}
	return nil
}

func (s *activityStore) ListByUser(ctx context.Context, userID string) ([]model.UserActivity, error) {
	out, err := findAll[model.UserActivity](ctx, s.c, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing activities of user %s: %w", userID, err)
	}
	return out, nil
}

func (s *activityStore) ListByProject(ctx context.Context, projectID string) ([]model.UserActivity, error) {
	out, err := findAll[model.UserActivity](ctx, s.c, bson.M{"projectId": projectID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing activities of project %s: %w", projectID, err)
	}
	return out, nil
}

func (s *activityStore) ListRecent(ctx context.Context, limit int) ([]model.UserActivity, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	out, err := findAll[model.UserActivity](ctx, s.c, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing recent activities: %w", err)
	}
	return out, nil
}
