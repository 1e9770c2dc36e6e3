package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the JSON error envelope for the api endpoints. The
// download and webhook endpoints answer plain text instead.
type APIError struct {
	Error string `json:"error"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, APIError{Error: message})
}
