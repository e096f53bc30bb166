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

// postTables lists the collections that hold buyer posts. migrate creates
// one identically shaped table for each.
var postTables = []string{"jobs", "internships", "problems"}

var (
	_ repository.JobRepository        = (*postStore[model.Job, *model.Job])(nil)
	_ repository.InternshipRepository = (*postStore[model.Internship, *model.Internship])(nil)
	_ repository.ProblemRepository    = (*postStore[model.Problem, *model.Problem])(nil)
)

// postStore serves one post table. PT is the pointer type of T, which is
// where the id setter and owner accessors live.
type postStore[T any, PT interface {
	*T
	model.PostRecord
}] struct {
	conn  *sql.DB
	table string
}

func newPostStore[T any, PT interface {
	*T
	model.PostRecord
}](conn *sql.DB, table string) *postStore[T, PT] {
	return &postStore[T, PT]{conn: conn, table: table}
}

func (s *postStore[T, PT]) Create(ctx context.Context, post *T) error {
	rec := PT(post)
	rec.SetDocumentID(newID())

	posted := rec.PostedTime()
	if posted.IsZero() {
		posted = time.Now().UTC()
	}

	doc, err := encodeDoc(post)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, buyer_email, posted_at, doc) VALUES (?, ?, ?, ?)`, s.table),
		rec.DocumentID(), rec.Owner(), posted.UnixNano(), doc,
	)
	if err != nil {
		rec.SetDocumentID("")
		return fmt.Errorf("sqlite: inserting into %s: %w", s.table, err)
	}
	return nil
}

func (s *postStore[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	post, err := getDoc[T](ctx, s.conn, fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, s.table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound(s.resource(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", s.resource(), id, err)
	}
	return post, nil
}

func (s *postStore[T, PT]) ListByBuyer(ctx context.Context, buyerEmail string) ([]T, error) {
	posts, err := queryDocs[T](ctx, s.conn,
		fmt.Sprintf(`SELECT doc FROM %s WHERE buyer_email = ? ORDER BY posted_at DESC, id DESC`, s.table),
		buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s of %s: %w", s.table, buyerEmail, err)
	}
	return posts, nil
}

func (s *postStore[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table), id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", s.resource(), id, err)
	}
	return affectedOne(res, apperror.NotFound(s.resource(), id))
}

// resource is the singular name used in error messages ("job", "problem").
func (s *postStore[T, PT]) resource() string {
	return s.table[:len(s.table)-1]
}
