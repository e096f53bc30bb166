package model

import (
	"slices"
	"time"
)

// HackathonStatus is set at creation. Nothing advances it yet.
type HackathonStatus string

const (
	HackathonUpcoming  HackathonStatus = "UPCOMING"
	HackathonOngoing   HackathonStatus = "ONGOING"
	HackathonCompleted HackathonStatus = "COMPLETED"
)

func (s HackathonStatus) Valid() bool {
	switch s {
	case HackathonUpcoming, HackathonOngoing, HackathonCompleted:
		return true
	}
	return false
}

// Hackathon is organised by a buyer. Participants is a set of user emails
// whose size never exceeds MaxParticipants.
type Hackathon struct {
	ID              string          `json:"id"              bson:"_id,omitempty"`
	Name            string          `json:"name"            bson:"name"`
	Description     string          `json:"description"     bson:"description"`
	StartDate       string          `json:"startDate"       bson:"startDate"`
	EndDate         string          `json:"endDate"         bson:"endDate"`
	OrganizerID     string          `json:"organizerId"     bson:"organizerId"`
	Participants    []string        `json:"participants"    bson:"participants"`
	MaxParticipants int             `json:"maxParticipants" bson:"maxParticipants"`
	Prizes          []string        `json:"prizes"          bson:"prizes"`
	Technologies    []string        `json:"technologies"    bson:"technologies"`
	Status          HackathonStatus `json:"status"          bson:"status"`
	CreatedAt       time.Time       `json:"createdAt"       bson:"createdAt"`
}

// IsParticipant reports whether userID is already registered.
func (h *Hackathon) IsParticipant(userID string) bool {
	return slices.Contains(h.Participants, userID)
}

// IsFull reports whether no seat is left.
func (h *Hackathon) IsFull() bool {
	return len(h.Participants) >= h.MaxParticipants
}
