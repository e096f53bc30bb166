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

var _ repository.HackathonRepository = (*hackathonStore)(nil)

type hackathonStore struct {
	conn *sql.DB
}

func (s *hackathonStore) Create(ctx context.Context, h *model.Hackathon) error {
	h.ID = newID()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if h.Participants == nil {
		h.Participants = []string{}
	}

	doc, err := encodeDoc(h)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO hackathons (id, created_at, doc) VALUES (?, ?, ?)`,
		h.ID, h.CreatedAt.UnixNano(), doc,
	)
	if err != nil {
		h.ID = ""
		return fmt.Errorf("sqlite: inserting hackathon: %w", err)
	}
	return nil
}

func (s *hackathonStore) GetByID(ctx context.Context, id string) (*model.Hackathon, error) {
	return getHackathon(ctx, s.conn, id)
}

// Update merges the editable fields into the stored record inside one
// transaction, the same way AddParticipant does, so a registration landing
// between the caller's read and this write is kept.
func (s *hackathonStore) Update(ctx context.Context, h *model.Hackathon) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning hackathon update tx: %w", err)
	}
	defer tx.Rollback()

	cur, err := getHackathon(ctx, tx, h.ID)
	if err != nil {
		return err
	}
	if h.MaxParticipants < len(cur.Participants) {
		return apperror.Conflict(fmt.Sprintf(
			"maxParticipants cannot be below the %d registered participants", len(cur.Participants)))
	}

	cur.Name = h.Name
	cur.Description = h.Description
	cur.StartDate = h.StartDate
	cur.EndDate = h.EndDate
	cur.MaxParticipants = h.MaxParticipants
	cur.Prizes = h.Prizes
	cur.Technologies = h.Technologies

	doc, err := encodeDoc(cur)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE hackathons SET doc = ? WHERE id = ?`, doc, h.ID); err != nil {
		return fmt.Errorf("sqlite: updating hackathon %s: %w", h.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing hackathon update: %w", err)
	}

	*h = *cur
	return nil
}

func (s *hackathonStore) List(ctx context.Context) ([]model.Hackathon, error) {
	hackathons, err := queryDocs[model.Hackathon](ctx, s.conn,
		`SELECT doc FROM hackathons ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing hackathons: %w", err)
	}
	return hackathons, nil
}

// AddParticipant reads, checks and writes inside one transaction. File
// databases begin it IMMEDIATE (see New) and in-memory ones have a single
// connection, so no other writer can slip in between the check and the
// write.
func (s *hackathonStore) AddParticipant(ctx context.Context, id, userID string) (bool, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning registration tx: %w", err)
	}
	defer tx.Rollback()

	h, err := getHackathon(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if h.IsParticipant(userID) || h.IsFull() {
		return false, nil
	}

	h.Participants = append(h.Participants, userID)
	doc, err := encodeDoc(h)
	if err != nil {
		return false, fmt.Errorf("sqlite: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE hackathons SET doc = ? WHERE id = ?`, doc, id); err != nil {
		return false, fmt.Errorf("sqlite: adding participant to hackathon %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing registration: %w", err)
	}
	return true, nil
}

func getHackathon(ctx context.Context, q querier, id string) (*model.Hackathon, error) {
	h, err := getDoc[model.Hackathon](ctx, q, `SELECT doc FROM hackathons WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("hackathon", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting hackathon %s: %w", id, err)
	}
	return h, nil
}
