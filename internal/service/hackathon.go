package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// HackathonService creates hackathons and registers participants.
type HackathonService struct {
	repo    repository.HackathonRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewHackathonService(repo repository.HackathonRepository, m *metrics.Metrics, logger *zap.Logger) *HackathonService {
	return &HackathonService{repo: repo, metrics: m, logger: logger}
}

// HackathonInput is what an organiser supplies. Dates are kept as the
// client sent them; they are compared only when both parse.
type HackathonInput struct {
	Name            string
	Description     string
	StartDate       string
	EndDate         string
	MaxParticipants int
	Prizes          []string
	Technologies    []string
	Status          model.HackathonStatus
}

// dateLayouts are tried in order when comparing start and end.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func (in *HackathonInput) validate() (*HackathonInput, error) {
	var (
		out HackathonInput
		err error
	)
	if out.Name, err = requireText("name", in.Name); err != nil {
		return nil, err
	}
	if out.Description, err = requireText("description", in.Description); err != nil {
		return nil, err
	}
	if out.StartDate, err = requireText("startDate", in.StartDate); err != nil {
		return nil, err
	}
	if out.EndDate, err = requireText("endDate", in.EndDate); err != nil {
		return nil, err
	}
	if out.Prizes = cleanList(in.Prizes); len(out.Prizes) == 0 {
		return nil, apperror.ValidationFailed("prizes", "at least one prize is required")
	}
	if out.Technologies = cleanList(in.Technologies); len(out.Technologies) == 0 {
		return nil, apperror.ValidationFailed("technologies", "at least one technology is required")
	}
	if in.MaxParticipants < 1 {
		return nil, apperror.ValidationFailed("maxParticipants", "maxParticipants must be at least 1")
	}
	out.MaxParticipants = in.MaxParticipants

	out.Status = model.HackathonStatus(strings.ToUpper(strings.TrimSpace(string(in.Status))))
	if out.Status == "" {
		out.Status = model.HackathonUpcoming
	}
	if !out.Status.Valid() {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown hackathon status %q", in.Status))
	}

	start, okStart := parseDate(out.StartDate)
	end, okEnd := parseDate(out.EndDate)
	if okStart && okEnd && end.Before(start) {
		return nil, apperror.ValidationFailed("endDate", "endDate must not be before startDate")
	}
	return &out, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Create stores a new hackathon organised by the caller.
func (s *HackathonService) Create(ctx context.Context, caller auth.Principal, in HackathonInput) (*model.Hackathon, error) {
	v, err := in.validate()
	if err != nil {
		return nil, err
	}

	h := &model.Hackathon{
		Name:            v.Name,
		Description:     v.Description,
		StartDate:       v.StartDate,
		EndDate:         v.EndDate,
		OrganizerID:     caller.Email,
		Participants:    []string{},
		MaxParticipants: v.MaxParticipants,
		Prizes:          v.Prizes,
		Technologies:    v.Technologies,
		Status:          v.Status,
		CreatedAt:       now(),
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("creating hackathon: %w", err)
	}

	s.logger.Info("hackathon created", zap.String("id", h.ID), zap.String("organizer", h.OrganizerID))
	return h, nil
}

func (s *HackathonService) List(ctx context.Context) ([]model.Hackathon, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing hackathons: %w", err)
	}
	return list, nil
}

func (s *HackathonService) Get(ctx context.Context, id string) (*model.Hackathon, error) {
	return s.repo.GetByID(ctx, id)
}

// Register adds the caller to the participant list.
//
// The checks below give a precise error for the common case, but they are
// not what prevents overbooking: AddParticipant re-checks both guards
// atomically in storage. When it declines, a concurrent registration won
// the race and the record is re-read to say why.
func (s *HackathonService) Register(ctx context.Context, caller auth.Principal, id string) (*model.Hackathon, error) {
	h, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage("Hackathon not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading hackathon %s: %w", id, err)
	}
	if err := s.checkSeat(h, caller.Email); err != nil {
		return nil, err
	}

	added, err := s.repo.AddParticipant(ctx, id, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("registering %s for hackathon %s: %w", caller.Email, id, err)
	}

	h, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading hackathon %s: %w", id, err)
	}
	if !added {
		if err := s.checkSeat(h, caller.Email); err != nil {
			return nil, err
		}
		// Both guards pass on re-read, so the seat was freed in between.
		return nil, apperror.Conflict("Hackathon is full")
	}

	s.metrics.HackathonRegistration(metrics.RegistrationAdded)
	s.logger.Info("hackathon registration",
		zap.String("hackathon", id),
		zap.String("user", caller.Email),
		zap.Int("participants", len(h.Participants)),
	)
	return h, nil
}

func (s *HackathonService) checkSeat(h *model.Hackathon, userID string) error {
	if h.IsParticipant(userID) {
		s.metrics.HackathonRegistration(metrics.RegistrationDuplicate)
		return apperror.Conflict("User already registered")
	}
	if h.IsFull() {
		s.metrics.HackathonRegistration(metrics.RegistrationFull)
		return apperror.Conflict("Hackathon is full")
	}
	return nil
}

// Update edits an existing hackathon. Only its organiser or an admin may.
// Participants and status are left alone, and capacity cannot shrink below
// the current participant count.
func (s *HackathonService) Update(ctx context.Context, caller auth.Principal, id string, in HackathonInput) (*model.Hackathon, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(caller, h.OrganizerID) {
		return nil, apperror.Forbidden("Only the organizer can update this hackathon")
	}

	// Status is not editable; validate against the stored one.
	in.Status = h.Status
	v, err := in.validate()
	if err != nil {
		return nil, err
	}
	if v.MaxParticipants < len(h.Participants) {
		return nil, apperror.Conflict(fmt.Sprintf(
			"maxParticipants cannot be below the %d registered participants", len(h.Participants)))
	}

	h.Name = v.Name
	h.Description = v.Description
	h.StartDate = v.StartDate
	h.EndDate = v.EndDate
	h.MaxParticipants = v.MaxParticipants
	h.Technologies = v.Technologies
	h.Prizes = v.Prizes

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("updating hackathon %s: %w", id, err)
	}
	s.logger.Info("hackathon updated", zap.String("id", id), zap.String("by", caller.Email))
	return h, nil
}
