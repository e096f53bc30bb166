package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// UserService reads and edits accounts after registration.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *zap.Logger

	// Profile fields are shown verbatim to other users, so no markup at all
	// survives.
	text *bluemonday.Policy
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *zap.Logger) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
		text:      bluemonday.StrictPolicy(),
	}
}

// Find looks a user up by id. Ownership fields elsewhere hold emails, so
// an argument containing "@" is tried as an email when no id matches.
func (s *UserService) Find(ctx context.Context, idOrEmail string) (*model.User, error) {
	idOrEmail = strings.TrimSpace(idOrEmail)
	if idOrEmail == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}

	u, err := s.users.GetByID(ctx, idOrEmail)
	if errors.Is(err, apperror.ErrNotFound) && strings.Contains(idOrEmail, "@") {
		u, err = s.users.GetByEmail(ctx, strings.ToLower(idOrEmail))
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Current returns the caller's own record.
func (s *UserService) Current(ctx context.Context, caller auth.Principal) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, caller.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		// A valid token for a deleted account.
		return nil, apperror.Unauthorized("account no longer exists")
	}
	return u, err
}

// PublicProfile is Find without the private fields.
func (s *UserService) PublicProfile(ctx context.Context, idOrEmail string) (model.PublicProfile, error) {
	u, err := s.Find(ctx, idOrEmail)
	if err != nil {
		return model.PublicProfile{}, err
	}
	return u.Public(), nil
}

// ProfileInput carries the editable profile fields. Blank fields keep
// their current value.
type ProfileInput struct {
	Name         string
	Organization string
	Description  string
	Phone        string
	Password     string
}

// UpdateProfile edits the caller's own record. Email and role cannot be
// changed here.
func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Principal, in ProfileInput) (*model.User, error) {
	user, err := s.Current(ctx, caller)
	if err != nil {
		return nil, err
	}

	if v := s.clean(in.Name); v != "" {
		user.Name = v
	}
	if v := s.clean(in.Organization); v != "" {
		user.Organization = v
	}
	if v := s.clean(in.Description); v != "" {
		user.Description = v
	}
	if v := s.clean(in.Phone); v != "" {
		user.Phone = v
	}
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		hash, err := s.passwords.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile of %s: %w", user.Email, err)
	}
	s.logger.Info("profile updated", zap.String("id", user.ID))
	return user, nil
}

// UpdateStatus activates or deactivates an account. Admins only.
func (s *UserService) UpdateStatus(ctx context.Context, caller auth.Principal, userID string, active bool) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, apperror.Forbidden("only admins can change account status")
	}

	user, err := s.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating status of %s: %w", userID, err)
	}

	s.logger.Info("account status changed",
		zap.String("id", user.ID),
		zap.Bool("active", active),
		zap.String("by", caller.Email),
	)
	return user, nil
}

func (s *UserService) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("listing %s users: %w", role, err)
	}
	return users, nil
}

func (s *UserService) clean(v string) string {
	return strings.TrimSpace(s.text.Sanitize(v))
}
