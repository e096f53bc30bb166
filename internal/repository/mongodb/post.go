package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var (
	_ repository.JobRepository        = (*postStore[model.Job, *model.Job])(nil)
	_ repository.InternshipRepository = (*postStore[model.Internship, *model.Internship])(nil)
	_ repository.ProblemRepository    = (*postStore[model.Problem, *model.Problem])(nil)
)

// postStore serves one of the buyer post collections.
type postStore[T any, PT interface {
	*T
	model.Document
}] struct {
	c        *mongo.Collection
	resource string
}

func newPostStore[T any, PT interface {
	*T
	model.Document
}](c *mongo.Collection, resource string) *postStore[T, PT] {
	return &postStore[T, PT]{c: c, resource: resource}
}

func (s *postStore[T, PT]) Create(ctx context.Context, post *T) error {
	PT(post).SetDocumentID(newID())

	if _, err := s.c.InsertOne(ctx, post); err != nil {
		PT(post).SetDocumentID("")
		return fmt.Errorf("mongo: inserting %s: %w", s.resource, err)
	}
	return nil
}

func (s *postStore[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	post, err := findOne[T](ctx, s.c, byID(id), apperror.NotFound(s.resource, id))
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("mongo: getting %s %s: %w", s.resource, id, err)
	}
	return post, err
}

func (s *postStore[T, PT]) ListByBuyer(ctx context.Context, buyerEmail string) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "postedAt", Value: -1}, {Key: "_id", Value: -1}})
	posts, err := findAll[T](ctx, s.c, bson.M{"buyerEmail": buyerEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing %ss of %s: %w", s.resource, buyerEmail, err)
	}
	return posts, nil
}

func (s *postStore[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("mongo: deleting %s %s: %w", s.resource, id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound(s.resource, id)
	}
	return nil
}
