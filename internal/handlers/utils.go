package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"video-streamer/internal/logging"
	"video-streamer/internal/videos"
)

// apiResponse is the envelope for non-payload responses.
type apiResponse struct {
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, apiResponse{Message: message, Success: status < 400, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Message: message, Success: false})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, videos.ErrNotFound):
		writeError(w, http.StatusNotFound, "video not found")
	case errors.Is(err, videos.ErrNotReady):
		writeError(w, http.StatusConflict, "video is not ready")
	default:
		logging.Error("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
