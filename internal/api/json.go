package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/richtext"
)

const maxJSONBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// validatable is a request body with its own checks.
type validatable interface {
	Validate() error
}

// decodeJSON reads a JSON body into v and runs its Validate method when it
// has one. It writes the 400 response itself and reports whether the
// handler may go on.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if vv, ok := v.(validatable); ok {
		if err := vv.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return false
		}
	}
	return true
}

// statusOf maps an error to the HTTP status and the message shown to the
// page.
func statusOf(err error) (int, string) {
	var apiErr *brandoo.APIError
	switch {
	case errors.Is(err, apperr.ErrNoSession):
		return http.StatusUnauthorized, "no active session"
	case errors.Is(err, apperr.ErrNoPrivateKey):
		return http.StatusUnauthorized, "private key missing"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrLockedField):
		return http.StatusUnprocessableEntity, "field is locked"
	case errors.Is(err, apperr.ErrInvalidType):
		return http.StatusBadRequest, "invalid type"
	case errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, richtext.ErrSelection),
		errors.Is(err, richtext.ErrAlign),
		errors.Is(err, richtext.ErrFontSize),
		errors.Is(err, richtext.ErrLink),
		errors.Is(err, richtext.ErrCommand):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "backend error"
	}
	return http.StatusInternalServerError, "internal error"
}
