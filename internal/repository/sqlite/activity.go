package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.ActivityRepository = (*activityStore)(nil)

type activityStore struct {
	conn *sql.DB
}

func (s *activityStore) Create(ctx context.Context, a *model.UserActivity) error {
	a.ID = newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	doc, err := encodeDoc(a)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO user_activities (id, user_id, project_id, ts, doc) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.ProjectID, a.Timestamp.UnixNano(), doc,
	)
	if err != nil {
		a.ID = ""
		return fmt.Errorf("sqlite: inserting activity: %w", err)
	}
	return nil
}

func (s *activityStore) ListByUser(ctx context.Context, userID string) ([]model.UserActivity, error) {
	out, err := queryDocs[model.UserActivity](ctx, s.conn,
		`SELECT doc FROM user_activities WHERE user_id = ? ORDER BY ts DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities of user %s: %w", userID, err)
	}
	return out, nil
}

func (s *activityStore) ListByProject(ctx context.Context, projectID string) ([]model.UserActivity, error) {
	out, err := queryDocs[model.UserActivity](ctx, s.conn,
		`SELECT doc FROM user_activities WHERE project_id = ? ORDER BY ts DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities of project %s: %w", projectID, err)
	}
	return out, nil
}

func (s *activityStore) ListRecent(ctx context.Context, limit int) ([]model.UserActivity, error) {
	out, err := queryDocs[model.UserActivity](ctx, s.conn,
		`SELECT doc FROM user_activities ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent activities: %w", err)
	}
	return out, nil
}
