package grid

import (
	"encoding/json"
	"net/http"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch core.Kind(err) {
	case core.ErrInvalidArgument:
		return http.StatusBadRequest
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrInvalidTarget:
		return http.StatusUnprocessableEntity
	case core.ErrCycleDetected:
		return http.StatusConflict
	case core.ErrNoOp:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func kindName(err error) string {
	switch core.Kind(err) {
	case core.ErrInvalidArgument:
		return "invalid_argument"
	case core.ErrNotFound:
		return "not_found"
	case core.ErrInvalidTarget:
		return "invalid_target"
	case core.ErrCycleDetected:
		return "cycle_detected"
	case core.ErrNoOp:
		return "noop"
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kindName(err)})
}
