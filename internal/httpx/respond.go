// Package httpx holds small JSON request/response helpers shared by
// every handler package, following the teacher's encoding/json-direct-
// to-ResponseWriter style (no response framework).
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
)

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps err to an HTTP status using the apperrors sentinels
// (spec §7) and writes a {"detail": "..."} body, the shape the original
// FastAPI services returned on HTTPException.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrBusinessReject):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrStorage):
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, map[string]string{"detail": err.Error()})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
