package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devmarket/internal/model"
)

func TestActivityQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.activities

	_, err := a.Log(ctx, "u1", "p1", model.ActionCreatedProject, "Created project: p1")
	require.NoError(t, err)
	_, err = a.LogFileUpload(ctx, "u1", "p1", "main.go")
	require.NoError(t, err)
	comment, err := a.LogComment(ctx, "u2", "p1", "nice work")
	require.NoError(t, err)
	_, err = a.Log(ctx, "u1", "p2", model.ActionEditedProject, "")
	require.NoError(t, err)

	assert.Equal(t, model.ActionCommented, comment.Action)
	assert.False(t, comment.Timestamp.IsZero())

	byUser, err := a.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 3)
	assert.Equal(t, model.ActionEditedProject, byUser[0].Action, "newest first")

	uploads, err := a.ForUserAction(ctx, "u1", "uploaded_file")
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "Uploaded file: main.go", uploads[0].Description)

	onP1, err := a.ForProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, onP1, 3)

	comments, err := a.ForProjectAction(ctx, "p1", model.ActionCommented)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	streaks, err := a.Streaks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, byUser, streaks)

	none, err := a.ForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecent_ClampsLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for range DefaultRecentActivities + 5 {
		_, err := env.activities.Log(ctx, "u", "p", model.ActionEditedProject, "")
		require.NoError(t, err)
	}

	got, err := env.activities.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultRecentActivities)

	got, err = env.activities.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = env.activities.Recent(ctx, 10_000)
	require.NoError(t, err)
	assert.Len(t, got, DefaultRecentActivities+5)
}
