package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload written by the ops endpoints.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using ErrorBody.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]ErrorBody{
		"error": {Code: code, Message: message},
	})
}
