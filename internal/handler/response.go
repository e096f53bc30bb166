package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same envelope:
//
//	{"data": ..., "message": "...", "success": true, "status": 200}
//
// Handlers never build it by hand. They call writeOK on success and
// writeError with whatever the service returned; writeError is the single
// place where domain errors become HTTP status codes.

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/response"
)

// maxJSONBody bounds JSON request bodies. File uploads go through multipart
// with their own limits.
const maxJSONBody = 1 << 20

const internalErrorMessage = "An internal error occurred"

// writeOK sends data in a success envelope with the given status.
func writeOK[T any](w http.ResponseWriter, logger *zap.Logger, status int, data T, message string) {
	if err := response.OK(data, message).WithStatus(status).Write(w); err != nil {
		// Headers are already sent; all we can do is log.
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeFail sends an error envelope with a message the client may see.
func writeFail(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	if err := response.Fail(status, message).Write(w); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps a service error to a status code:
//
//	ErrValidation, ErrConflict → 400
//	ErrUnauthorized            → 401
//	ErrForbidden               → 403
//	ErrNotFound                → 404
//	anything else              → 500, with a generic message
//
// errors.Is walks the wrap chain, so "creating project: %w" around an
// AppError still matches. Only AppError messages reach the client; the
// text of an unknown error might contain queries or file paths, so it is
// logged and replaced.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeFail(w, logger, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	}

	message := appErr.Message
	if status == http.StatusInternalServerError {
		message = internalErrorMessage
	}
	logger.Debug("request rejected",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("reason", appErr.Message),
	)
	writeFail(w, logger, status, message)
}

// decodeJSON reads one JSON value from the body into dst. Unknown fields
// are ignored; an empty, oversized or malformed body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "request body is too large")
		}
		return apperror.ValidationFailed("body", "Request body is missing or invalid")
	}
	return nil
}

// callerOf returns the principal RequireAuth stored. Routes without
// RequireAuth get the zero Principal, which owns nothing and holds no role.
func callerOf(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
