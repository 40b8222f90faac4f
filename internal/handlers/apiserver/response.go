package apiserver

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the generic shape for API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSONResponse sends a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		// Headers are already sent; an encode failure here cannot be
		// reported to the client anymore.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeJSONError sends a JSON error response with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Message: message})
}
