package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// Recent-feed bounds.
const (
	DefaultRecentActivities = 10
	MaxRecentActivities     = 100
)

// ActivityService appends to and reads the user activity log.
type ActivityService struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
}

func NewActivityService(repo repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Log appends one entry stamped with the server clock.
func (s *ActivityService) Log(ctx context.Context, userID, projectID, action, description string) (*model.UserActivity, error) {
	a := &model.UserActivity{
		UserID:      userID,
		ProjectID:   projectID,
		Action:      action,
		Description: description,
		Timestamp:   now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("logging %s for %s: %w", action, userID, err)
	}
	s.logger.Debug("activity logged",
		zap.String("user", userID),
		zap.String("project", projectID),
		zap.String("action", action),
	)
	return a, nil
}

func (s *ActivityService) LogFileUpload(ctx context.Context, userID, projectID, filename string) (*model.UserActivity, error) {
	return s.Log(ctx, userID, projectID, model.ActionUploadedFile, "Uploaded file: "+filename)
}

func (s *ActivityService) LogComment(ctx context.Context, userID, projectID, comment string) (*model.UserActivity, error) {
	return s.Log(ctx, userID, projectID, model.ActionCommented, "Commented: "+comment)
}

func (s *ActivityService) ForUser(ctx context.Context, userID string) ([]model.UserActivity, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities of %s: %w", userID, err)
	}
	return out, nil
}

func (s *ActivityService) ForProject(ctx context.Context, projectID string) ([]model.UserActivity, error) {
	out, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing activities of project %s: %w", projectID, err)
	}
	return out, nil
}

// ForUserAction filters ForUser by action, ignoring case.
func (s *ActivityService) ForUserAction(ctx context.Context, userID, action string) ([]model.UserActivity, error) {
	all, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterAction(all, action), nil
}

// ForProjectAction filters ForProject by action, ignoring case.
func (s *ActivityService) ForProjectAction(ctx context.Context, projectID, action string) ([]model.UserActivity, error) {
	all, err := s.ForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return filterAction(all, action), nil
}

// Streaks returns the raw history the client computes streaks from.
func (s *ActivityService) Streaks(ctx context.Context, userID string) ([]model.UserActivity, error) {
	return s.ForUser(ctx, userID)
}

// Recent feeds the admin dashboard. limit is clamped to
// [1, MaxRecentActivities]; zero or less means the default.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]model.UserActivity, error) {
	if limit <= 0 {
		limit = DefaultRecentActivities
	}
	limit = min(limit, MaxRecentActivities)

	out, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent activities: %w", err)
	}
	return out, nil
}

func filterAction(in []model.UserActivity, action string) []model.UserActivity {
	out := make([]model.UserActivity, 0, len(in))
	for _, a := range in {
		if strings.EqualFold(a.Action, action) {
			out = append(out, a)
		}
	}
	return out
}
