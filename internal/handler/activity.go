package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// ActivityHandler serves the read side of the activity log under
// /api/activities. Entries are written by the services, never by clients.
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *zap.Logger
}

func NewActivityHandler(activities *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

// HandleUser: GET /api/activities/user/{userId}.
func (h *ActivityHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.ForUser(r.Context(), chi.URLParam(r, "userId"))
	h.respond(w, r, list, err, "User activities fetched")
}

// HandleUserStreaks: GET /api/activities/user/{userId}/streaks.
func (h *ActivityHandler) HandleUserStreaks(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.Streaks(r.Context(), chi.URLParam(r, "userId"))
	h.respond(w, r, list, err, "User activity streaks fetched")
}

// HandleUserAction: GET /api/activities/user/{userId}/action/{action}.
func (h *ActivityHandler) HandleUserAction(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.ForUserAction(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "action"))
	h.respond(w, r, list, err, "User activities fetched")
}

// HandleProject: GET /api/activities/project/{projectId}.
func (h *ActivityHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.ForProject(r.Context(), chi.URLParam(r, "projectId"))
	h.respond(w, r, list, err, "Project activities fetched")
}

// HandleProjectAction: GET /api/activities/project/{projectId}/action/{action}.
func (h *ActivityHandler) HandleProjectAction(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.ForProjectAction(r.Context(), chi.URLParam(r, "projectId"), chi.URLParam(r, "action"))
	h.respond(w, r, list, err, "Project activities fetched")
}

func (h *ActivityHandler) respond(w http.ResponseWriter, r *http.Request, list []model.UserActivity, err error, message string) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, list, message)
}
