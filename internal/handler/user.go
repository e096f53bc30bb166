package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// UserHandler serves /api/users: buyer and admin registration, profiles,
// account status and the admin listings.
type UserHandler struct {
	auth       *service.AuthService
	users      *service.UserService
	activities *service.ActivityService
	logger     *zap.Logger
}

func NewUserHandler(authSvc *service.AuthService, users *service.UserService, activities *service.ActivityService, logger *zap.Logger) *UserHandler {
	return &UserHandler{auth: authSvc, users: users, activities: activities, logger: logger}
}

// HandleRegisterBuyer: POST /api/users/buyer (public).
func (h *UserHandler) HandleRegisterBuyer(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, model.RoleBuyer, "Buyer registered successfully")
}

// HandleRegisterAdmin: POST /api/users/admin (ADMIN).
func (h *UserHandler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, model.RoleAdmin, "Admin registered successfully")
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request, role model.Role, message string) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.auth.Register(r.Context(), req.input(), role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, user, message)
}

// HandleCurrent: GET /api/users/current.
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Current(r.Context(), callerOf(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "Current user profile retrieved successfully")
}

// HandleCurrentBuyer: GET /api/users/buyers/current.
func (h *UserHandler) HandleCurrentBuyer(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Current(r.Context(), callerOf(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "Current buyer profile retrieved successfully")
}

// HandleProfile: GET /api/users/profile?userId=. Without userId it is the
// caller's own profile.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	var (
		user *model.User
		err  error
	)
	if id := strings.TrimSpace(r.URL.Query().Get("userId")); id != "" {
		user, err = h.users.Find(r.Context(), id)
	} else {
		user, err = h.users.Current(r.Context(), callerOf(r))
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "User profile retrieved successfully")
}

type profileRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
}

// HandleUpdateProfile: PUT /api/users/profile.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), callerOf(r), service.ProfileInput{
		Name:         req.Name,
		Organization: req.Organization,
		Description:  req.Description,
		Phone:        req.Phone,
		Password:     req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "User profile updated successfully")
}

// HandleUpdateStatus: PUT /api/users/{userId}/status?active=true|false.
func (h *UserHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("active")
	if raw == "" {
		writeFail(w, h.logger, http.StatusBadRequest, "Query parameter 'active' is required")
		return
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		writeFail(w, h.logger, http.StatusBadRequest, "Query parameter 'active' must be true or false")
		return
	}

	user, err := h.users.UpdateStatus(r.Context(), callerOf(r), chi.URLParam(r, "userId"), active)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "User status updated successfully")
}

// HandleDevelopers: GET /api/users/developers (ADMIN).
func (h *UserHandler) HandleDevelopers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleDeveloper, "Developers retrieved successfully")
}

// HandleBuyers: GET /api/users/buyers (ADMIN).
func (h *UserHandler) HandleBuyers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleBuyer, "Buyers retrieved successfully")
}

func (h *UserHandler) listByRole(w http.ResponseWriter, r *http.Request, role model.Role, message string) {
	users, err := h.users.ListByRole(r.Context(), role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, users, message)
}

// HandleRecentActivities: GET /api/users/recent-activities?limit= (ADMIN).
// A missing or unparsable limit falls back to the default.
func (h *UserHandler) HandleRecentActivities(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activities.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, activities, "Recent activities retrieved successfully")
}

// HandleGet: GET /api/users/{userId}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Find(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, user, "User retrieved successfully")
}

// HandleGetPublic: GET /api/users/public/{userId}. Only the public
// profile fields are returned.
func (h *UserHandler) HandleGetPublic(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.PublicProfile(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, profile, "User profile retrieved successfully")
}
