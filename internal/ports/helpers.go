package ports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
)

func parsePlayerID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseMode(r *http.Request) (domain.Mode, error) {
	value, err := strconv.Atoi(r.PathValue("mode"))
	if err != nil {
		return 0, err
	}
	mode := domain.Mode(value)
	if !mode.Valid() {
		return 0, errors.New("invalid mode")
	}
	return mode, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain error kinds to status codes. Unknown errors are
// reported and come back as a plain 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrIncompleteFingerprint):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrMultiaccount):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	default:
		reporting.Report(ctx, err)
		logging.FromContext(ctx).Error("Request failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to parse request body"})
		return false
	}
	return true
}

// actorID reads the acting operator from the request. Zero means the actor
// was not identified.
func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-Id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
