package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/response"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperror.ValidationFailed("name", "name is required"), http.StatusBadRequest, "name is required"},
		{"conflict", apperror.Conflict("Hackathon is full"), http.StatusBadRequest, "Hackathon is full"},
		{"unauthorized", apperror.Unauthorized("invalid email or password"), http.StatusUnauthorized, "invalid email or password"},
		{"forbidden", apperror.Forbidden("You can only update your own projects"), http.StatusForbidden, "You can only update your own projects"},
		{"not found", apperror.NotFoundMessage("Hackathon not found"), http.StatusNotFound, "Hackathon not found"},
		{"wrapped", fmt.Errorf("loading: %w", apperror.NotFoundMessage("Post not found")), http.StatusNotFound, "Post not found"},
		{"unknown", errors.New("sqlite: disk I/O error at /var/data"), http.StatusInternalServerError, internalErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			writeError(rec, req, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var env response.Envelope[any]
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantStatus, env.Status)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Nil(t, env.Data)
		})
	}
}

func TestWriteError_LogsUnknownErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)

	writeError(rec, req, zap.New(core), errors.New("connection reset"))

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	t.Run("ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
		assert.Equal(t, "x", dst.Name)
	})

	t.Run("empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("too large", func(t *testing.T) {
		body := `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "vue"}, splitList(" go, ,vue,"))
	assert.Nil(t, splitList(""))
}
