// Package repository declares the storage contracts the service layer
// depends on. Two backends implement them: repository/mongodb (MongoDB) and
// repository/sqlite (an embedded document table per collection).
//
// Conventions shared by every implementation:
//   - Create assigns the ID; callers never set it
//   - a missing record is apperror.ErrNotFound
//   - Update writes the editable fields (last writer wins); counters and
//     participant lists only change through their own atomic operations
//   - list results are never nil
package repository

import (
	"context"

	"github.com/sakif/devmarket/internal/model"
)

type UserRepository interface {
	// Create fails with apperror.ErrConflict when the email is taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// Update writes everything but the stats, then loads the stored stats
	// into project.
	Update(ctx context.Context, project *model.Project) error
	// List returns every project, oldest first.
	List(ctx context.Context) ([]model.Project, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Project, error)
	// IncrementStat bumps one counter in place and returns the new stats.
	IncrementStat(ctx context.Context, id string, stat model.ProjectStat) (model.ProjectStats, error)
}

type HackathonRepository interface {
	Create(ctx context.Context, hackathon *model.Hackathon) error
	GetByID(ctx context.Context, id string) (*model.Hackathon, error)
	// Update writes the name, description, dates, capacity, prizes and
	// technologies and loads the stored record back into hackathon. It fails
	// with apperror.ErrConflict when the new capacity is below the number
	// of registered participants at the time of the write.
	Update(ctx context.Context, hackathon *model.Hackathon) error
	// List is ordered by creation time, then id.
	List(ctx context.Context) ([]model.Hackathon, error)
	// AddParticipant appends userID only if it is not yet a participant and
	// a seat is free, as one atomic step. It reports false, with a nil
	// error, when either guard fails.
	AddParticipant(ctx context.Context, id, userID string) (bool, error)
}

// PostRepository is shared by the three buyer post collections.
type PostRepository[T any] interface {
	Create(ctx context.Context, post *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	// ListByBuyer is ordered by posting time, newest first.
	ListByBuyer(ctx context.Context, buyerEmail string) ([]T, error)
	Delete(ctx context.Context, id string) error
}

type (
	JobRepository        = PostRepository[model.Job]
	InternshipRepository = PostRepository[model.Internship]
	ProblemRepository    = PostRepository[model.Problem]
)

// ActivityRepository is append-only. Every list is newest first.
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.UserActivity) error
	ListByUser(ctx context.Context, userID string) ([]model.UserActivity, error)
	ListByProject(ctx context.Context, projectID string) ([]model.UserActivity, error)
	ListRecent(ctx context.Context, limit int) ([]model.UserActivity, error)
}

// Store is one opened backend.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Hackathons() HackathonRepository
	Jobs() JobRepository
	Internships() InternshipRepository
	Problems() ProblemRepository
	Activities() ActivityRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
