package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/staffguard"
)

const maxBodySize = 4 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

// mapError writes the response for an engine error. Credential and lockout
// failures never reveal whether the identifier exists beyond what the
// lockout state itself implies.
func mapError(w http.ResponseWriter, err error) {
	var (
		locked  *staffguard.LockedError
		expired *staffguard.ExpiredError
	)
	switch {
	case errors.As(err, &locked):
		writeJSON(w, http.StatusLocked, ErrorResponse{Error: staffguard.ErrAccountLocked.Error(), JustLocked: locked.JustLocked})
	case errors.Is(err, staffguard.ErrAccountLocked):
		writeError(w, http.StatusLocked, staffguard.ErrAccountLocked.Error())
	case errors.Is(err, staffguard.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, staffguard.ErrInvalidCredentials.Error())
	case errors.As(err, &expired):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: staffguard.ErrSessionExpired.Error(), Reason: string(expired.Reason)})
	case errors.Is(err, staffguard.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, staffguard.ErrSessionNotFound.Error())
	case errors.Is(err, staffguard.ErrUnknownRole):
		writeError(w, http.StatusForbidden, "account role not permitted")
	case errors.Is(err, staffguard.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
