package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// GetThumbnail serves the video's thumbnail, generating it on first
// request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.Thumbnail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

// RegenerateThumbnail discards the stored thumbnail and produces a fresh
// one.
func (h *Handlers) RegenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.RegenerateThumbnail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "thumbnail regenerated", map[string]string{"path": path})
}
