package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edvin/mailpanel/internal/core"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteServiceError maps a core service error to an HTTP status. Unknown
// errors are reported as 500 with a generic message so internals never leak.
func WriteServiceError(w http.ResponseWriter, err error) {
	var serr *core.Error
	if !errors.As(err, &serr) {
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch serr.Kind {
	case core.KindUnauthorized:
		WriteError(w, http.StatusUnauthorized, serr.Msg)
	case core.KindNotFound:
		WriteError(w, http.StatusNotFound, serr.Msg)
	case core.KindValidation, core.KindQuotaExceeded, core.KindProviderRejected:
		WriteError(w, http.StatusBadRequest, serr.Msg)
	case core.KindNoPlan, core.KindLimitReached:
		// A reached count ceiling is a plan restriction, not a bad request.
		WriteError(w, http.StatusForbidden, serr.Msg)
	case core.KindProviderUnavailable:
		WriteError(w, http.StatusInternalServerError, serr.Msg)
	case core.KindStore:
		WriteError(w, http.StatusInternalServerError, "internal error")
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
