package httputil

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every successful call answers with.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorBody struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// Empty is the data payload of calls that have nothing to return.
var Empty = struct{}{}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteData(w http.ResponseWriter, status int, data any, message string) {
	if message == "" {
		message = "Success"
	}
	WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func WriteError(w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	WriteJSON(w, status, ErrorBody{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}
