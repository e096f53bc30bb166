package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// HackathonHandler serves /api/hackathons.
type HackathonHandler struct {
	hackathons *service.HackathonService
	logger     *zap.Logger
}

func NewHackathonHandler(hackathons *service.HackathonService, logger *zap.Logger) *HackathonHandler {
	return &HackathonHandler{hackathons: hackathons, logger: logger}
}

type hackathonRequest struct {
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	StartDate       string                `json:"startDate"`
	EndDate         string                `json:"endDate"`
	MaxParticipants int                   `json:"maxParticipants"`
	Prizes          []string              `json:"prizes"`
	Technologies    []string              `json:"technologies"`
	Status          model.HackathonStatus `json:"status"`
}

func (req hackathonRequest) input() service.HackathonInput {
	return service.HackathonInput{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		Prizes:          req.Prizes,
		Technologies:    req.Technologies,
		Status:          req.Status,
	}
}

// HandleCreate: POST /api/hackathons (BUYER). Answers 201.
func (h *HackathonHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req hackathonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	hackathon, err := h.hackathons.Create(r.Context(), callerOf(r), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, hackathon, "Hackathon created successfully")
}

// HandleList: GET /api/hackathons (public).
func (h *HackathonHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	hackathons, err := h.hackathons.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, hackathons, "Hackathons retrieved successfully")
}

// HandleGet: GET /api/hackathons/{id} (public).
func (h *HackathonHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	hackathon, err := h.hackathons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, hackathon, "Hackathon retrieved successfully")
}

// HandleRegister: POST /api/hackathons/{id}/register (DEVELOPER). The
// caller is registered; there is no body.
func (h *HackathonHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	hackathon, err := h.hackathons.Register(r.Context(), callerOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, hackathon, "Participant registered successfully")
}

// HandleUpdate: PUT /api/hackathons/{id} (organizer or ADMIN).
func (h *HackathonHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req hackathonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	hackathon, err := h.hackathons.Update(r.Context(), callerOf(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, hackathon, "Hackathon updated successfully")
}
