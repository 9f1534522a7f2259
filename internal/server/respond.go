package server

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error      string   `json:"error"`
	Errors     []string `json:"errors,omitempty"`
	RawOutputs []string `json:"raw_outputs,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
