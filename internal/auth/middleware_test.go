package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devmarket/internal/model"
)

// echoPrincipal writes the caller's email, or "anonymous".
var echoPrincipal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(p.Email))
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate(devPrincipal())
	require.NoError(t, err)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusOK,
			wantBody: "dev@example.com",
		},
		{
			name:     "lowercase scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantCode: http.StatusOK,
			wantBody: "dev@example.com",
		},
		{
			name:     "cookie fallback",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) },
			wantCode: http.StatusOK,
			wantBody: "dev@example.com",
		},
		{
			name:     "missing credentials",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "basic scheme ignored",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			RequireAuth(ts)(echoPrincipal).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, rr.Body.String())
				return
			}

			var env map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			assert.Equal(t, false, env["success"])
			assert.Equal(t, float64(http.StatusUnauthorized), env["status"])
		})
	}
}

func TestOptionalAuth_AllowsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	rr := httptest.NewRecorder()

	OptionalAuth(ts)(echoPrincipal).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())
}

func TestRequireRole(t *testing.T) {
	ts := newTestTokenService(t)
	buyer, _ := ts.Generate(Principal{Email: "b@example.com", Roles: []model.Role{model.RoleBuyer}})
	admin, _ := ts.Generate(Principal{Email: "a@example.com", Roles: []model.Role{model.RoleAdmin}})

	chain := RequireAuth(ts)(RequireRole(model.RoleDeveloper, model.RoleAdmin)(echoPrincipal))

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"buyer rejected", buyer, http.StatusForbidden},
		{"admin allowed", admin, http.StatusOK},
		{"anonymous unauthorized", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			chain.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}

func TestRequireRole_WithoutRequireAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	RequireRole(model.RoleBuyer)(echoPrincipal).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
