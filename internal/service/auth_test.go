package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/model"
)

func validRegistration() RegisterInput {
	return RegisterInput{Email: "Ann@Example.com", Name: "Ann", Password: "correct-horse"}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, validRegistration(), model.RoleBuyer)
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, model.RoleBuyer, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, validRegistration(), model.RoleBuyer)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, validRegistration(), model.RoleDeveloper)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *RegisterInput)
		role  model.Role
		field string
	}{
		{"missing email", func(in *RegisterInput) { in.Email = " " }, model.RoleBuyer, "email"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, model.RoleBuyer, "email"},
		{"display name form", func(in *RegisterInput) { in.Email = "Ann <ann@example.com>" }, model.RoleBuyer, "email"},
		{"blank name", func(in *RegisterInput) { in.Name = "" }, model.RoleBuyer, "name"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, model.RoleBuyer, "password"},
		{"long password", func(in *RegisterInput) { in.Password = string(make([]byte, 73)) }, model.RoleBuyer, "password"},
		{"unknown role", func(in *RegisterInput) {}, model.Role("OWNER"), "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := validRegistration()
			tt.edit(&in)

			_, err := env.auth.Register(context.Background(), in, tt.role)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, validRegistration(), model.RoleDeveloper)
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, "ANN@example.com", "correct-horse")
	require.NoError(t, err)

	p, err := env.tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", p.Email)
	assert.True(t, p.HasRole(model.RoleDeveloper))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Logins.WithLabelValues("password", "success")))
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, validRegistration(), model.RoleDeveloper)
	require.NoError(t, err)

	_, errWrongPassword := env.auth.Login(ctx, "ann@example.com", "wrong-password")
	_, errUnknown := env.auth.Login(ctx, "nobody@example.com", "correct-horse")

	_, err = env.users.UpdateStatus(ctx, admin("root@example.com"), u.ID, false)
	require.NoError(t, err)
	_, errInactive := env.auth.Login(ctx, "ann@example.com", "correct-horse")

	for _, err := range []error{errWrongPassword, errUnknown, errInactive} {
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, "invalid email or password", err.Error())
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.Logins.WithLabelValues("password", "failure")))
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octo", Email: "Octo@Example.com"}

	first, err := env.auth.LoginOrRegisterGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, "octo@example.com", first.User.Email)
	assert.Equal(t, "octo", first.User.Name, "login is the fallback name")
	assert.Equal(t, model.RoleDeveloper, first.User.Role)
	assert.NotEmpty(t, first.Token)

	second, err := env.auth.LoginOrRegisterGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestLoginOrRegisterGitHub_LinksExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing, err := env.auth.Register(ctx, validRegistration(), model.RoleBuyer)
	require.NoError(t, err)

	res, err := env.auth.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 7, Login: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.User.ID)
	assert.Equal(t, model.RoleBuyer, res.User.Role, "role is kept")

	stored, err := env.store.Users().GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.GitHubID)
	assert.NotEmpty(t, stored.PasswordHash, "password login still works")
}

func TestLoginOrRegisterGitHub_NoEmail(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "ghost"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
