// Package apiutil holds shared JSON plumbing for the handler packages.
package apiutil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/fault"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondError maps an engine error onto an HTTP status and a structured
// body. Errors without a kind are logged and surface as 500.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	if kind == fault.KindUnknown {
		log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled error")
		RespondJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "internal",
			Message: "Internal Server Error",
		})
		return
	}

	RespondJSON(w, StatusForKind(kind), errorBody{
		Error:   kind.String(),
		Message: fault.MessageOf(err),
	})
}

// StatusForKind translates an error kind into an HTTP status code.
func StatusForKind(kind fault.Kind) int {
	switch kind {
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindConflict:
		return http.StatusConflict
	case fault.KindForbidden:
		return http.StatusForbidden
	case fault.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON parses the request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
