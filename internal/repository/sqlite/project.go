package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.ProjectRepository = (*projectStore)(nil)

type projectStore struct {
	conn *sql.DB
}

func (s *projectStore) Create(ctx context.Context, p *model.Project) error {
	p.ID = newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	doc, err := encodeDoc(p)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, created_at, doc) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, p.CreatedAt.UnixNano(), doc,
	)
	if err != nil {
		p.ID = ""
		return fmt.Errorf("sqlite: inserting project: %w", err)
	}
	return nil
}

func (s *projectStore) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := getDoc[model.Project](ctx, s.conn, `SELECT doc FROM projects WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("project", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// Update replaces the stored document, owner column included, except for
// the stats: those are read back from the row inside the same transaction
// so increments made since the caller's read survive.
func (s *projectStore) Update(ctx context.Context, p *model.Project) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning project update tx: %w", err)
	}
	defer tx.Rollback()

	var views, downloads sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT json_extract(doc, '$.stats.viewCount'), json_extract(doc, '$.stats.downloadCount')
		 FROM projects WHERE id = ?`, p.ID,
	).Scan(&views, &downloads)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("project", p.ID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: reading stats of project %s: %w", p.ID, err)
	}
	p.Stats = model.ProjectStats{ViewCount: views.Int64, DownloadCount: downloads.Int64}

	doc, err := encodeDoc(p)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET user_id = ?, doc = ? WHERE id = ?`, p.UserID, doc, p.ID); err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing project update: %w", err)
	}
	return nil
}

func (s *projectStore) List(ctx context.Context) ([]model.Project, error) {
	projects, err := queryDocs[model.Project](ctx, s.conn,
		`SELECT doc FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	return projects, nil
}

func (s *projectStore) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := queryDocs[model.Project](ctx, s.conn,
		`SELECT doc FROM projects WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects of %s: %w", userID, err)
	}
	return projects, nil
}

// IncrementStat updates the counter inside the JSON document with a single
// statement, so concurrent increments are not lost.
func (s *projectStore) IncrementStat(ctx context.Context, id string, stat model.ProjectStat) (model.ProjectStats, error) {
	var path string
	switch stat {
	case model.StatViews:
		path = "$.stats.viewCount"
	case model.StatDownloads:
		path = "$.stats.downloadCount"
	default:
		return model.ProjectStats{}, fmt.Errorf("sqlite: unknown project stat %q", stat)
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE projects
		 SET doc = json_set(doc, ?, COALESCE(json_extract(doc, ?), 0) + 1)
		 WHERE id = ?`,
		path, path, id,
	)
	if err != nil {
		return model.ProjectStats{}, fmt.Errorf("sqlite: incrementing %s of project %s: %w", stat, id, err)
	}
	if err := affectedOne(res, apperror.NotFound("project", id)); err != nil {
		return model.ProjectStats{}, err
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return model.ProjectStats{}, err
	}
	return p.Stats, nil
}
