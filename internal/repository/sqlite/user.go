package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.UserRepository = (*userStore)(nil)

// userStore keeps the password hash in its own column: the hash is tagged
// json:"-" and would otherwise be dropped from the document.
type userStore struct {
	conn *sql.DB
}

const userColumns = `doc, password_hash`

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc, err := encodeDoc(user)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, role, password_hash, created_at, doc)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, string(user.Role), user.PasswordHash, user.CreatedAt.UnixNano(), doc,
	)
	if err != nil {
		user.ID = ""
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundMessage("user not found with email " + email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	doc, err := encodeDoc(user)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, role = ?, password_hash = ?, doc = ? WHERE id = ?`,
		user.Email, string(user.Role), user.PasswordHash, doc, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return affectedOne(res, apperror.NotFound("user", user.ID))
}

func (s *userStore) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at, id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s users: %w", role, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: listing %s users: %w", role, err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userStore) scanOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	return scanUser(s.conn.QueryRowContext(ctx, query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var raw, hash string
	if err := row.Scan(&raw, &hash); err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	u.PasswordHash = hash
	return &u, nil
}
