package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
	"github.com/sakif/devmarket/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services are tested against a real in-memory SQLite store rather than
// hand-written mocks: the storage guards (unique email, atomic hackathon
// registration) are part of the behaviour under test.

type testEnv struct {
	store      *sqlite.DB
	tokens     *auth.TokenService
	metrics    *metrics.Metrics
	auth       *AuthService
	users      *UserService
	activities *ActivityService
	projects   *ProjectService
	hackathons *HackathonService
	posts      *PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", 0)
	require.NoError(t, err)

	logger := zap.NewNop()
	passwords := auth.NewPasswordServiceForTest(4)
	m := metrics.New()
	activities := NewActivityService(store.Activities(), logger)

	return &testEnv{
		store:      store,
		tokens:     tokens,
		metrics:    m,
		auth:       NewAuthService(store.Users(), tokens, passwords, m, logger),
		users:      NewUserService(store.Users(), passwords, logger),
		activities: activities,
		projects:   NewProjectService(store.Projects(), store.Users(), activities, m, logger, 1<<20),
		hackathons: NewHackathonService(store.Hackathons(), m, logger),
		posts:      NewPostService(store.Jobs(), store.Internships(), store.Problems(), m, logger),
	}
}

func principal(email string, role model.Role) auth.Principal {
	return auth.Principal{UserID: "id-" + email, Email: email, Roles: []model.Role{role}}
}

func developer(email string) auth.Principal { return principal(email, model.RoleDeveloper) }
func buyer(email string) auth.Principal     { return principal(email, model.RoleBuyer) }
func admin(email string) auth.Principal     { return principal(email, model.RoleAdmin) }

// failingActivities fails every append and delegates everything else.
type failingActivities struct {
	repository.ActivityRepository
}

func (failingActivities) Create(context.Context, *model.UserActivity) error {
	return errors.New("activity store unavailable")
}
