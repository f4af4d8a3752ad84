package domain

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// WriteError serializes err as the uniform {"error":{...}} envelope with
// the matching HTTP status. Rate-limited errors additionally set a
// Retry-After header mirroring the machine-readable hint in details.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := Normalize(err)

	w.Header().Set("Content-Type", "application/json")
	if rl, ok := apiErr.Details.(RateLimitDetails); ok && rl.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds))
	}
	w.WriteHeader(apiErr.StatusCode)

	// Encoding an APIError cannot fail: Details is always either nil or
	// one of the marshalable detail structs above.
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiErr})
}

// WriteJSON serializes a success payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
