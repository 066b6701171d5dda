package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/muvel/internal/apperr"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty" example:"not_found"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAmbiguousState), errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusPreconditionFailed
	case errors.Is(err, apperr.ErrCorruptData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its kind. Server-side failures are logged
// and their details kept from the client.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	kind := apperr.KindOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("api: "+op+" failed", slog.String("kind", kind), slog.String("error", err.Error()))
		writeJSON(w, status, errResponse{Error: "internal error", Kind: kind})
		return
	}
	h.logger.Debug("api: "+op+" rejected", slog.String("kind", kind), slog.String("error", err.Error()))
	writeJSON(w, status, errResponse{Error: err.Error(), Kind: kind})
}

// decodeJSON reads a JSON request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}
