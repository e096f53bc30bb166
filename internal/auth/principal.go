package auth

import (
	"strings"

	"github.com/sakif/devmarket/internal/model"
)

// Principal is the authenticated caller. Handlers read it from the request
// context once and then pass it by value into every service call; services
// never look at the context for identity.
//
// Email is the identity the rest of the system keys ownership on.
type Principal struct {
	UserID string
	Email  string
	Roles  []model.Role
}

// HasRole compares case-insensitively, so a token minted with "buyer" still
// satisfies a BUYER gate.
func (p Principal) HasRole(role model.Role) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(string(r), string(role)) {
			return true
		}
	}
	return false
}

func (p Principal) HasAnyRole(roles ...model.Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(model.RoleAdmin)
}

// PrincipalFor builds the principal a user authenticates as.
func PrincipalFor(u *model.User) Principal {
	return Principal{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  []model.Role{u.Role},
	}
}
