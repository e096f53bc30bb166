package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

func validHackathon(max int) HackathonInput {
	return HackathonInput{
		Name:            "Build Week",
		Description:     "Ship something",
		StartDate:       "2026-11-01",
		EndDate:         "2026-11-07",
		MaxParticipants: max,
		Prizes:          []string{"1000 USD"},
		Technologies:    []string{"Go"},
	}
}

func createHackathon(t *testing.T, env *testEnv, organizer string, max int) *model.Hackathon {
	t.Helper()
	h, err := env.hackathons.Create(context.Background(), buyer(organizer), validHackathon(max))
	require.NoError(t, err)
	return h
}

func TestCreateHackathon(t *testing.T) {
	env := newTestEnv(t)
	h := createHackathon(t, env, "org@example.com", 10)

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "org@example.com", h.OrganizerID)
	assert.Equal(t, model.HackathonUpcoming, h.Status)
	assert.NotNil(t, h.Participants)
	assert.Empty(t, h.Participants)
	assert.False(t, h.CreatedAt.IsZero())
}

func TestCreateHackathon_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *HackathonInput)
		field string
	}{
		{"blank name", func(in *HackathonInput) { in.Name = " " }, "name"},
		{"blank description", func(in *HackathonInput) { in.Description = "" }, "description"},
		{"blank start", func(in *HackathonInput) { in.StartDate = "" }, "startDate"},
		{"blank end", func(in *HackathonInput) { in.EndDate = "" }, "endDate"},
		{"no prizes", func(in *HackathonInput) { in.Prizes = []string{" "} }, "prizes"},
		{"no technologies", func(in *HackathonInput) { in.Technologies = nil }, "technologies"},
		{"zero capacity", func(in *HackathonInput) { in.MaxParticipants = 0 }, "maxParticipants"},
		{"unknown status", func(in *HackathonInput) { in.Status = "CANCELLED" }, "status"},
		{"end before start", func(in *HackathonInput) { in.EndDate = "2026-10-01" }, "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := validHackathon(5)
			tt.edit(&in)

			_, err := env.hackathons.Create(context.Background(), buyer("org@example.com"), in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestCreateHackathon_UnparseableDatesAreKept(t *testing.T) {
	env := newTestEnv(t)
	in := validHackathon(5)
	in.StartDate = "early November"
	in.EndDate = "2026-01-01"

	h, err := env.hackathons.Create(context.Background(), buyer("org@example.com"), in)
	require.NoError(t, err)
	assert.Equal(t, "early November", h.StartDate)
}

func TestRegister_CapacityScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 1)

	got, err := env.hackathons.Register(ctx, developer("u1"), h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Participants)

	_, err = env.hackathons.Register(ctx, developer("u2"), h.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Hackathon is full", err.Error())

	stored, err := env.hackathons.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, stored.Participants)
}

func TestRegister_DuplicateAndMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 5)

	_, err := env.hackathons.Register(ctx, developer("u1"), h.ID)
	require.NoError(t, err)

	_, err = env.hackathons.Register(ctx, developer("u1"), h.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "User already registered", err.Error())

	_, err = env.hackathons.Register(ctx, developer("u1"), "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Hackathon not found", err.Error())
}

func TestRegister_ConcurrentNeverOverbooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 3)

	var ok, full atomic.Int32
	var wg sync.WaitGroup
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.hackathons.Register(ctx, developer(fmt.Sprintf("dev%d@example.com", i)), h.ID)
			if err == nil {
				ok.Add(1)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrConflict)
			full.Add(1)
		}()
	}
	wg.Wait()

	stored, err := env.hackathons.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 3)
	assert.Equal(t, int32(3), ok.Load())
	assert.Equal(t, int32(9), full.Load())
}

func TestListHackathons_StableOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := createHackathon(t, env, "org@example.com", 5)
	second := createHackathon(t, env, "org@example.com", 5)

	a, err := env.hackathons.List(ctx)
	require.NoError(t, err)
	b, err := env.hackathons.List(ctx)
	require.NoError(t, err)

	require.Len(t, a, 2)
	assert.Equal(t, first.ID, a[0].ID)
	assert.Equal(t, second.ID, a[1].ID)
	assert.Equal(t, a, b)
}

func TestUpdateHackathon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 5)
	_, err := env.hackathons.Register(ctx, developer("u1"), h.ID)
	require.NoError(t, err)
	_, err = env.hackathons.Register(ctx, developer("u2"), h.ID)
	require.NoError(t, err)

	in := validHackathon(2)
	in.Name = "Build Week 2"

	_, err = env.hackathons.Update(ctx, buyer("other@example.com"), h.ID, in)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := env.hackathons.Update(ctx, buyer("org@example.com"), h.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Build Week 2", updated.Name)
	assert.Equal(t, []string{"u1", "u2"}, updated.Participants, "participants are kept")
	assert.Equal(t, model.HackathonUpcoming, updated.Status)

	in.MaxParticipants = 1
	_, err = env.hackathons.Update(ctx, admin("root@example.com"), h.ID, in)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = env.hackathons.Update(ctx, admin("root@example.com"), "missing", in)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// registeringHackathons registers user right before every Update reaches
// the store, after the service has already read the hackathon.
type registeringHackathons struct {
	repository.HackathonRepository
	t    *testing.T
	user string
}

func (r registeringHackathons) Update(ctx context.Context, h *model.Hackathon) error {
	added, err := r.AddParticipant(ctx, h.ID, r.user)
	require.NoError(r.t, err)
	require.True(r.t, added)
	return r.HackathonRepository.Update(ctx, h)
}

func TestUpdateHackathon_KeepsRegistrationMadeDuringEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 5)

	repo := registeringHackathons{HackathonRepository: env.store.Hackathons(), t: t, user: "dev@example.com"}
	svc := NewHackathonService(repo, env.metrics, zap.NewNop())

	in := validHackathon(5)
	in.Name = "Build Week 2"
	updated, err := svc.Update(ctx, buyer("org@example.com"), h.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Build Week 2", updated.Name)
	assert.Equal(t, []string{"dev@example.com"}, updated.Participants)

	stored, err := env.store.Hackathons().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Build Week 2", stored.Name)
	assert.Equal(t, []string{"dev@example.com"}, stored.Participants)
}

func TestUpdateHackathon_CapacityCheckedAtWriteTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := createHackathon(t, env, "org@example.com", 5)
	_, err := env.hackathons.Register(ctx, developer("u1"), h.ID)
	require.NoError(t, err)

	repo := registeringHackathons{HackathonRepository: env.store.Hackathons(), t: t, user: "u2"}
	svc := NewHackathonService(repo, env.metrics, zap.NewNop())

	// One participant when the service checks, two when the store writes.
	_, err = svc.Update(ctx, buyer("org@example.com"), h.ID, validHackathon(1))
	require.ErrorIs(t, err, apperror.ErrConflict)

	stored, err := env.store.Hackathons().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.MaxParticipants)
	assert.Equal(t, []string{"u1", "u2"}, stored.Participants)
}
