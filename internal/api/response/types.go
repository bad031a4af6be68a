package response

import (
	"encoding/json"
	"net/http"
)

// Health is the response for the health endpoint
type Health struct {
	Status  string   `json:"status"`
	Storage string   `json:"storage"`
	Rooms   int      `json:"rooms"`
	Parties []string `json:"parties"`
}

// UsernameValidation is the response for the username validation endpoint.
// Reason is always set, including for valid names.
type UsernameValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// JSON writes data as a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
