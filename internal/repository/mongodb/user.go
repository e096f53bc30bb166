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

var _ repository.UserRepository = (*userStore)(nil)

type userStore struct {
	c *mongo.Collection
}

// Create relies on the unique email index for duplicate detection, so two
// concurrent sign-ups with one address cannot both succeed.
func (s *userStore) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = newID()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		u.ID = ""
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", u.Email))
		}
		return fmt.Errorf("mongo: inserting user %s: %w", u.Email, err)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := findOne[model.User](ctx, s.c, byID(id), apperror.NotFound("user", id))
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("mongo: getting user %s: %w", id, err)
	}
	return u, err
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := findOne[model.User](ctx, s.c, bson.M{"email": email},
		apperror.NotFoundMessage("user not found with email "+email))
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("mongo: getting user by email %s: %w", email, err)
	}
	return u, err
}

func (s *userStore) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := s.c.ReplaceOne(ctx, byID(u.ID), u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", u.Email))
		}
		return fmt.Errorf("mongo: updating user %s: %w", u.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", u.ID)
	}
	return nil
}

func (s *userStore) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	users, err := findAll[model.User](ctx, s.c, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing %s users: %w", role, err)
	}
	return users, nil
}
