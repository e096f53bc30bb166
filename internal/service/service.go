// Package service contains the business logic layer of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes envelopes
//	Service (business layer) → validates, checks ownership, stamps timestamps
//	Repository (data layer)  → reads/writes documents
//
// Services never see an *http.Request. Identity arrives as an explicit
// auth.Principal argument, resolved by the handler from the request
// context, so every rule here can be tested with plain function calls.
//
// Errors leave this package as apperror values (ErrValidation, ErrNotFound,
// ErrForbidden, ErrConflict) or wrapped storage errors; the handler maps
// them to HTTP statuses.
package service

import (
	"strings"
	"time"

	"github.com/sakif/devmarket/internal/apperror"
)

// now is the clock every service stamps records with.
var now = func() time.Time { return time.Now().UTC() }

// requireText trims v and fails validation when nothing is left.
func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return v, nil
}

// cleanList trims every entry and drops the blank ones. The result is
// never nil, so it serialises as [].
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
