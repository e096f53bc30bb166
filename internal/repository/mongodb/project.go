package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.ProjectRepository = (*projectStore)(nil)

type projectStore struct {
	c *mongo.Collection
}

var oldestFirst = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func (s *projectStore) Create(ctx context.Context, p *model.Project) error {
	p.ID = newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		p.ID = ""
		return fmt.Errorf("mongo: inserting project: %w", err)
	}
	return nil
}

func (s *projectStore) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := findOne[model.Project](ctx, s.c, byID(id), apperror.NotFound("project", id))
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("mongo: getting project %s: %w", id, err)
	}
	return p, err
}

// Update $sets every field except the stats, which only IncrementStat
// writes, and loads the stored stats back into p.
func (s *projectStore) Update(ctx context.Context, p *model.Project) error {
	update := bson.M{"$set": bson.M{
		"name":              p.Name,
		"description":       p.Description,
		"visibility":        p.Visibility,
		"addReadme":         p.AddReadme,
		"gitignoreTemplate": p.GitignoreTemplate,
		"license":           p.License,
		"technologies":      p.Technologies,
		"status":            p.Status,
		"userId":            p.UserID,
		"files":             p.Files,
		"createdAt":         p.CreatedAt,
		"updatedAt":         p.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stats": 1})

	var out struct {
		Stats model.ProjectStats `bson:"stats"`
	}
	err := s.c.FindOneAndUpdate(ctx, byID(p.ID), update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NotFound("project", p.ID)
	}
	if err != nil {
		return fmt.Errorf("mongo: updating project %s: %w", p.ID, err)
	}
	p.Stats = out.Stats
	return nil
}

func (s *projectStore) List(ctx context.Context) ([]model.Project, error) {
	projects, err := findAll[model.Project](ctx, s.c, bson.M{}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing projects: %w", err)
	}
	return projects, nil
}

func (s *projectStore) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := findAll[model.Project](ctx, s.c, bson.M{"userId": userID}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing projects of %s: %w", userID, err)
	}
	return projects, nil
}

// IncrementStat uses $inc, which the server applies atomically per document.
func (s *projectStore) IncrementStat(ctx context.Context, id string, stat model.ProjectStat) (model.ProjectStats, error) {
	if stat != model.StatViews && stat != model.StatDownloads {
		return model.ProjectStats{}, fmt.Errorf("mongo: unknown project stat %q", stat)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stats": 1})

	var out struct {
		Stats model.ProjectStats `bson:"stats"`
	}
	err := s.c.FindOneAndUpdate(ctx, byID(id), bson.M{"$inc": bson.M{"stats." + string(stat): 1}}, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ProjectStats{}, apperror.NotFound("project", id)
	}
	if err != nil {
		return model.ProjectStats{}, fmt.Errorf("mongo: incrementing %s of project %s: %w", stat, id, err)
	}
	return out.Stats, nil
}
