// Package model defines the data structures used throughout the application.
//
// Every struct carries two sets of tags:
//   - `json` for the HTTP API (and for the sqlite document column)
//   - `bson` for MongoDB documents
//
// The ID field maps to Mongo's `_id`. The storage layer assigns it on first
// persist; nothing else writes it afterwards.
package model

import (
	"strings"
	"time"
)

// Role drives authorization. A user holds exactly one role.
type Role string

const (
	RoleBuyer     Role = "BUYER"
	RoleDeveloper Role = "DEVELOPER"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole normalises a role name ("buyer", "Buyer", "BUYER") and reports
// whether it is one of the known roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleBuyer, RoleDeveloper, RoleAdmin:
		return r, true
	}
	return "", false
}

// User represents a registered account.
//
// Email is the identity: tokens carry it as their subject and every
// ownership field elsewhere (Project.UserID, Hackathon.OrganizerID,
// post BuyerEmail) stores it.
//
// WHY PasswordHash HAS json:"-"?
// The hash must never appear in an API response. Backends that persist the
// JSON form (sqlite) store the hash in its own column instead.
type User struct {
	ID           string    `json:"id"                     bson:"_id,omitempty"`
	Email        string    `json:"email"                  bson:"email"`
	Name         string    `json:"name"                   bson:"name"`
	Role         Role      `json:"role"                   bson:"role"`
	Organization string    `json:"organization,omitempty" bson:"organization,omitempty"`
	Description  string    `json:"description,omitempty"  bson:"description,omitempty"`
	Phone        string    `json:"phone,omitempty"        bson:"phone,omitempty"`
	Active       bool      `json:"isActive"               bson:"active"`
	GitHubID     int64     `json:"githubId,omitempty"     bson:"githubId,omitempty"`
	PasswordHash string    `json:"-"                      bson:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"              bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"              bson:"updatedAt"`
}

// PublicProfile is what anonymous callers see of a user.
type PublicProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Public strips the fields only the account owner or an admin should see.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Organization: u.Organization,
		Description:  u.Description,
	}
}
