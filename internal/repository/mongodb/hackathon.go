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

var _ repository.HackathonRepository = (*hackathonStore)(nil)

type hackathonStore struct {
	c *mongo.Collection
}

func (s *hackathonStore) Create(ctx context.Context, h *model.Hackathon) error {
	h.ID = newID()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if h.Participants == nil {
		h.Participants = []string{}
	}

	if _, err := s.c.InsertOne(ctx, h); err != nil {
		h.ID = ""
		return fmt.Errorf("mongo: inserting hackathon: %w", err)
	}
	return nil
}

func (s *hackathonStore) GetByID(ctx context.Context, id string) (*model.Hackathon, error) {
	h, err := findOne[model.Hackathon](ctx, s.c, byID(id), apperror.NotFound("hackathon", id))
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("mongo: getting hackathon %s: %w", id, err)
	}
	return h, err
}

// Update $sets the editable fields only, so participants pushed by
// AddParticipant are never overwritten. The capacity guard is part of the
// filter and runs against the participant list at write time:
//
//	{_id: id, $expr: {$lte: [{$size: {$ifNull: ["$participants", []]}}, max]}}
func (s *hackathonStore) Update(ctx context.Context, h *model.Hackathon) error {
	filter := bson.M{
		"_id": h.ID,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$participants", bson.A{}}}},
			h.MaxParticipants,
		}},
	}
	update := bson.M{"$set": bson.M{
		"name":            h.Name,
		"description":     h.Description,
		"startDate":       h.StartDate,
		"endDate":         h.EndDate,
		"maxParticipants": h.MaxParticipants,
		"prizes":          h.Prizes,
		"technologies":    h.Technologies,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored model.Hackathon
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err == nil {
		*h = stored
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("mongo: updating hackathon %s: %w", h.ID, err)
	}

	// No match: either the hackathon is gone or the capacity guard failed.
	n, err := s.c.CountDocuments(ctx, byID(h.ID))
	if err != nil {
		return fmt.Errorf("mongo: checking hackathon %s: %w", h.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("hackathon", h.ID)
	}
	return apperror.Conflict("maxParticipants cannot be below the number of registered participants")
}

func (s *hackathonStore) List(ctx context.Context) ([]model.Hackathon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	hackathons, err := findAll[model.Hackathon](ctx, s.c, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing hackathons: %w", err)
	}
	return hackathons, nil
}

// AddParticipant pushes userID with a filter that only matches while the
// user is absent and a seat is free. The server evaluates filter and update
// on one document atomically, so racing registrations cannot overbook.
//
//	{_id: id, participants: {$ne: user},
//	 $expr: {$lt: [{$size: {$ifNull: ["$participants", []]}}, "$maxParticipants"]}}
func (s *hackathonStore) AddParticipant(ctx context.Context, id, userID string) (bool, error) {
	filter := bson.M{
		"_id":          id,
		"participants": bson.M{"$ne": userID},
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$participants", bson.A{}}}},
			"$maxParticipants",
		}},
	}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"participants": userID}})
	if err != nil {
		return false, fmt.Errorf("mongo: adding participant to hackathon %s: %w", id, err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}

	// No match: either the hackathon is gone or a guard failed.
	n, err := s.c.CountDocuments(ctx, byID(id))
	if err != nil {
		return false, fmt.Errorf("mongo: checking hackathon %s: %w", id, err)
	}
	if n == 0 {
		return false, apperror.NotFound("hackathon", id)
	}
	return false, nil
}
