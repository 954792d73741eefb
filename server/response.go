package server

import (
	"encoding/json"
	"net/http"

	"songservice/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeMessage 返回 {"message": msg}
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError 返回 {"error": err.Error()}
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "not found")
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}
