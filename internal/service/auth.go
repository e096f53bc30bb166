package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// Password bounds. bcrypt ignores everything past 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordLength = auth.MaxPasswordBytes
)

// AuthService registers accounts and turns credentials into tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// AuthResult bundles the user and the token issued for them, so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// RegisterInput is the account data a caller supplies.
type RegisterInput struct {
	Email        string
	Name         string
	Password     string
	Organization string
	Description  string
	Phone        string
}

// Register creates an active account with the given role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	email, err := normaliseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := requireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	parsed, ok := model.ParseRole(string(role))
	if !ok {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", role))
	}
	role = parsed

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		Role:         role,
		Organization: strings.TrimSpace(in.Organization),
		Description:  strings.TrimSpace(in.Description),
		Phone:        strings.TrimSpace(in.Phone),
		Active:       true,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering %s: %w", email, err)
	}

	s.logger.Info("user registered",
		zap.String("id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Login checks email and password. Unknown email, wrong password and an
// inactive account all fail with the same Unauthorized error, so the
// response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperror.ErrNotFound) {
		s.metrics.Login("password", false)
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", email, err)
	}

	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil || !user.Active {
		s.metrics.Login("password", false)
		return nil, invalid
	}

	s.metrics.Login("password", true)
	return s.issue(user)
}

// LoginOrRegisterGitHub handles the OAuth callback: the GitHub account is
// matched to a user by email, created as a DEVELOPER on first login.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.Email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no usable email")
	}
	email := strings.ToLower(gh.Email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		name := gh.Name
		if name == "" {
			name = gh.Login
		}
		user = &model.User{
			Email:    email,
			Name:     name,
			Role:     model.RoleDeveloper,
			Active:   true,
			GitHubID: gh.ID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("creating GitHub user %s: %w", email, err)
		}
		s.logger.Info("user registered via GitHub", zap.String("id", user.ID), zap.String("login", gh.Login))

	case err != nil:
		return nil, fmt.Errorf("looking up %s: %w", email, err)

	default:
		if !user.Active {
			s.metrics.Login("github", false)
			return nil, apperror.Unauthorized("account is disabled")
		}
		if user.GitHubID != gh.ID {
			user.GitHubID = gh.ID
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("linking GitHub account to %s: %w", email, err)
			}
		}
	}

	s.metrics.Login("github", true)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.PrincipalFor(user))
	if err != nil {
		return nil, fmt.Errorf("generating token for %s: %w", user.Email, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// normaliseEmail lower-cases and syntax-checks an address. Display-name
// forms ("Ann <ann@example.com>") are rejected.
func normaliseEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength || len(p) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d bytes", MinPasswordLength, MaxPasswordLength))
	}
	return nil
}
