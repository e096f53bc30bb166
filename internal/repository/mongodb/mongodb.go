// Package mongodb implements the repository interfaces on MongoDB, the
// production document store.
//
// Each collection gets a small store type wrapping a *mongo.Collection.
// Ids are ObjectIDs rendered as hex strings, so the model's string `_id`
// round-trips without conversion and sorts by creation time.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// Collection names.
const (
	usersCollection       = "users"
	projectsCollection    = "projects"
	hackathonsCollection  = "hackathons"
	jobsCollection        = "jobs"
	internshipsCollection = "internships"
	problemsCollection    = "problems"
	activitiesCollection  = "user_activities"
)

// Options tunes the client. Zero values use the driver defaults.
type Options struct {
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// DB owns a connected client and hands out one store per collection.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the primary is reachable and ensures every
// index exists. The returned DB must be closed with Close.
func Connect(ctx context.Context, uri, database string, opts Options) (*DB, error) {
	clientOpts := options.Client().ApplyURI(uri)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging primary: %w", err)
	}

	db := &DB{client: client, db: client.Database(database)}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

// EnsureIndexes creates the indexes every query path relies on. Creating
// an index that already exists with the same spec is a no-op.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_users_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("idx_users_role"),
			},
		},
		projectsCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("idx_projects_owner"),
			},
		},
		hackathonsCollection: {
			{
				Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_hackathons_created"),
			},
		},
		activitiesCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_activities_user"),
			},
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_activities_project"),
			},
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_activities_timestamp"),
			},
		},
	}
	for _, c := range []string{jobsCollection, internshipsCollection, problemsCollection} {
		specs[c] = []mongo.IndexModel{{
			Keys:    bson.D{{Key: "buyerEmail", Value: 1}, {Key: "postedAt", Value: -1}},
			Options: options.Index().SetName("idx_" + c + "_buyer"),
		}}
	}

	for name, models := range specs {
		if _, err := db.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (db *DB) Users() repository.UserRepository {
	return &userStore{c: db.db.Collection(usersCollection)}
}

func (db *DB) Projects() repository.ProjectRepository {
	return &projectStore{c: db.db.Collection(projectsCollection)}
}

func (db *DB) Hackathons() repository.HackathonRepository {
	return &hackathonStore{c: db.db.Collection(hackathonsCollection)}
}

func (db *DB) Jobs() repository.JobRepository {
	return newPostStore[model.Job](db.db.Collection(jobsCollection), "job")
}

func (db *DB) Internships() repository.InternshipRepository {
	return newPostStore[model.Internship](db.db.Collection(internshipsCollection), "internship")
}

func (db *DB) Problems() repository.ProblemRepository {
	return newPostStore[model.Problem](db.db.Collection(problemsCollection), "problem")
}

func (db *DB) Activities() repository.ActivityRepository {
	return &activityStore{c: db.db.Collection(activitiesCollection)}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Drop removes the whole database. Only tests call it.
func (db *DB) Drop(ctx context.Context) error {
	return db.db.Drop(ctx)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}
