package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/model"
)

func registerUser(t *testing.T, env *testEnv, email string, role model.Role) *model.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Name:     "User " + email,
		Password: "password-123",
	}, role)
	require.NoError(t, err)
	return u
}

func TestFind_ByIDOrEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "dev@example.com", model.RoleDeveloper)

	byID, err := env.users.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	byEmail, err := env.users.Find(ctx, "DEV@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = env.users.Find(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.users.Find(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateProfile_MergesNonBlankFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "dev@example.com", model.RoleDeveloper)
	caller := auth.PrincipalFor(u)

	updated, err := env.users.UpdateProfile(ctx, caller, ProfileInput{
		Organization: "Acme",
		Description:  `<script>alert(1)</script>Go developer`,
	})
	require.NoError(t, err)

	assert.Equal(t, u.Name, updated.Name, "blank name keeps the old one")
	assert.Equal(t, "Acme", updated.Organization)
	assert.Equal(t, "Go developer", updated.Description, "markup is stripped")
	assert.Equal(t, model.RoleDeveloper, updated.Role)
	assert.Equal(t, "dev@example.com", updated.Email)
}

func TestUpdateProfile_ChangesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "dev@example.com", model.RoleDeveloper)

	_, err := env.users.UpdateProfile(ctx, auth.PrincipalFor(u), ProfileInput{Password: "new-password-456"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "dev@example.com", "password-123")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = env.auth.Login(ctx, "dev@example.com", "new-password-456")
	assert.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, auth.PrincipalFor(u), ProfileInput{Password: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "dev@example.com", model.RoleDeveloper)

	_, err := env.users.UpdateStatus(ctx, buyer("b@example.com"), u.ID, false)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := env.users.UpdateStatus(ctx, admin("root@example.com"), u.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	stored, err := env.users.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestListByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerUser(t, env, "d1@example.com", model.RoleDeveloper)
	registerUser(t, env, "d2@example.com", model.RoleDeveloper)
	registerUser(t, env, "b1@example.com", model.RoleBuyer)

	devs, err := env.users.ListByRole(ctx, model.RoleDeveloper)
	require.NoError(t, err)
	require.Len(t, devs, 2)
	assert.Equal(t, "d1@example.com", devs[0].Email)

	admins, err := env.users.ListByRole(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.NotNil(t, admins)
	assert.Empty(t, admins)
}

func TestPublicProfile_HidesPrivateFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "dev@example.com", model.RoleDeveloper)

	_, err := env.users.UpdateProfile(ctx, auth.PrincipalFor(u), ProfileInput{Phone: "+91 98765 43210"})
	require.NoError(t, err)

	p, err := env.users.PublicProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, p.Email)
	assert.Equal(t, u.Name, p.Name)
}

func TestCurrent_UnknownAccountIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.Current(context.Background(), developer("ghost@example.com"))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
