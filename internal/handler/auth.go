package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

const (
	tokenCookie = "token"
	stateCookie = "oauth_state"
)

// AuthHandler serves /api/auth: password registration and login, and the
// GitHub OAuth flow for developers.
//
//   - HandleRegister       → POST /api/auth/register
//   - HandleLogin          → POST /api/auth/login
//   - HandleLogout         → POST /api/auth/logout
//   - HandleGitHubLogin    → GET  /api/auth/github/login
//   - HandleGitHubCallback → GET  /api/auth/github/callback
type AuthHandler struct {
	auth     *service.AuthService
	github   *auth.GitHubProvider // nil when GitHub login is not configured
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}
	return &AuthHandler{auth: svc, github: github, tokenTTL: tokenTTL, logger: logger}
}

// registerRequest is shared by every registration endpoint. Role is only
// read by /api/auth/register.
type registerRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
	Phone        string `json:"phone"`
}

func (req registerRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Email:        req.Email,
		Name:         req.Name,
		Password:     req.Password,
		Organization: req.Organization,
		Description:  req.Description,
		Phone:        req.Phone,
	}
}

// HandleRegister creates a DEVELOPER (the default) or BUYER account. Admin
// accounts are only created by other admins.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	role := model.RoleDeveloper
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok || parsed == model.RoleAdmin {
			writeError(w, r, h.logger, apperror.ValidationFailed("role", "role must be DEVELOPER or BUYER"))
			return
		}
		role = parsed
	}

	user, err := h.auth.Register(r.Context(), req.input(), role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, user, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin returns the token in the body and also sets it as an HttpOnly
// cookie, so both API clients and browsers work.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	writeOK(w, h.logger, http.StatusOK, res, "Login successful")
}

// HandleLogout clears the cookie. The token itself stays valid until it
// expires; without the cookie the browser just stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK[any](w, h.logger, http.StatusOK, nil, "Logged out")
}

// HandleGitHubLogin redirects to GitHub's consent page.
//
// CSRF PROTECTION VIA STATE:
// A random state value is stored in a short-lived cookie and sent to
// GitHub; the callback only proceeds when both come back equal.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the flow:
//  1. check the state cookie
//  2. exchange the code for a GitHub profile
//  3. find or create the developer account
//  4. issue the token cookie and return the account
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeFail(w, h.logger, http.StatusBadRequest, "invalid OAuth state")
		return
	}
	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", zap.String("error", denied))
		writeFail(w, h.logger, http.StatusUnauthorized, "GitHub authorization was denied")
		return
	}
	code := q.Get("code")
	if code == "" {
		writeFail(w, h.logger, http.StatusBadRequest, "missing OAuth code")
		return
	}

	gh, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", zap.Error(err))
		writeFail(w, h.logger, http.StatusUnauthorized, "GitHub authentication failed")
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), gh)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	writeOK(w, h.logger, http.StatusOK, res, "Login successful")
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
