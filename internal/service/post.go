package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// PostService manages the three kinds of buyer posts. They live in
// separate collections but are listed and deleted as one.
type PostService struct {
	jobs        repository.JobRepository
	internships repository.InternshipRepository
	problems    repository.ProblemRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewPostService(
	jobs repository.JobRepository,
	internships repository.InternshipRepository,
	problems repository.ProblemRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		jobs:        jobs,
		internships: internships,
		problems:    problems,
		metrics:     m,
		logger:      logger,
	}
}

func (s *PostService) CreateJob(ctx context.Context, caller auth.Principal, job model.Job) (*model.Job, error) {
	title, err := requireText("title", job.Title)
	if err != nil {
		return nil, err
	}
	job.ID = ""
	job.Title = title
	job.BuyerEmail = caller.Email
	job.PostedAt = now()
	if err := s.jobs.Create(ctx, &job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	s.created(model.PostJob, job.ID, caller.Email)
	return &job, nil
}

func (s *PostService) CreateInternship(ctx context.Context, caller auth.Principal, in model.Internship) (*model.Internship, error) {
	title, err := requireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	in.ID = ""
	in.Title = title
	in.Skills = cleanList(in.Skills)
	in.BuyerEmail = caller.Email
	in.PostedAt = now()
	if err := s.internships.Create(ctx, &in); err != nil {
		return nil, fmt.Errorf("creating internship: %w", err)
	}
	s.created(model.PostInternship, in.ID, caller.Email)
	return &in, nil
}

func (s *PostService) CreateProblem(ctx context.Context, caller auth.Principal, p model.Problem) (*model.Problem, error) {
	title, err := requireText("title", p.Title)
	if err != nil {
		return nil, err
	}
	p.ID = ""
	p.Title = title
	p.Tags = cleanList(p.Tags)
	p.BuyerEmail = caller.Email
	p.PostedAt = now()
	if err := s.problems.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("creating problem: %w", err)
	}
	s.created(model.PostProblem, p.ID, caller.Email)
	return &p, nil
}

func (s *PostService) created(kind model.PostKind, id, buyer string) {
	s.metrics.PostCreated(string(kind))
	s.logger.Info("post created",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("buyer", buyer),
	)
}

// ListByBuyer returns the caller's jobs, then internships, then problems,
// each group newest first.
func (s *PostService) ListByBuyer(ctx context.Context, caller auth.Principal) ([]model.Post, error) {
	jobs, err := s.jobs.ListByBuyer(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	internships, err := s.internships.ListByBuyer(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("listing internships: %w", err)
	}
	problems, err := s.problems.ListByBuyer(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}

	posts := make([]model.Post, 0, len(jobs)+len(internships)+len(problems))
	for i := range jobs {
		posts = append(posts, model.JobPost(&jobs[i]))
	}
	for i := range internships {
		posts = append(posts, model.InternshipPost(&internships[i]))
	}
	for i := range problems {
		posts = append(posts, model.ProblemPost(&problems[i]))
	}
	return posts, nil
}

// DeleteByBuyer removes the first post with that id the caller owns,
// probing jobs, internships and problems in that order. A post with that
// id owned by someone else is skipped, never deleted.
func (s *PostService) DeleteByBuyer(ctx context.Context, caller auth.Principal, id string) (model.PostKind, error) {
	probes := []struct {
		kind   model.PostKind
		owner  func() (string, error)
		delete func() error
	}{
		{model.PostJob, ownerOf(ctx, s.jobs, id), func() error { return s.jobs.Delete(ctx, id) }},
		{model.PostInternship, ownerOf(ctx, s.internships, id), func() error { return s.internships.Delete(ctx, id) }},
		{model.PostProblem, ownerOf(ctx, s.problems, id), func() error { return s.problems.Delete(ctx, id) }},
	}

	for _, p := range probes {
		owner, err := p.owner()
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("looking up post %s: %w", id, err)
		}
		if !strings.EqualFold(owner, caller.Email) {
			continue
		}

		if err := p.delete(); err != nil {
			return "", fmt.Errorf("deleting %s %s: %w", strings.ToLower(string(p.kind)), id, err)
		}
		s.logger.Info("post deleted",
			zap.String("kind", string(p.kind)),
			zap.String("id", id),
			zap.String("buyer", caller.Email),
		)
		return p.kind, nil
	}
	return "", apperror.NotFoundMessage("Post not found with id " + id)
}

// ownerOf returns a lookup of the buyer owning id in repo.
func ownerOf[T any, PT interface {
	*T
	model.PostRecord
}](ctx context.Context, repo repository.PostRepository[T], id string) func() (string, error) {
	return func() (string, error) {
		post, err := repo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return PT(post).Owner(), nil
	}
}
