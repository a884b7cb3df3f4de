package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"video-streamer/internal/database"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	segmentContentType  = "video/mp2t"
)

// readyVideo loads the video and confirms its HLS tree may be served.
func (h *Handlers) readyVideo(w http.ResponseWriter, r *http.Request) (*database.Video, bool) {
	v, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if v.Status != database.StatusReady {
		writeError(w, http.StatusConflict, "video is not ready")
		return nil, false
	}
	return v, true
}

// serveHLSFile serves one file out of the video's HLS tree after
// confirming the resolved path stays inside it.
func (h *Handlers) serveHLSFile(w http.ResponseWriter, r *http.Request, videoID, relPath, contentType string) {
	root := h.svc.HLSDir(videoID)
	path := filepath.Join(root, filepath.FromSlash(relPath))

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	if contentType == playlistContentType {
		// Playlists must not be cached; live clients re-fetch them.
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		// Segments are immutable once written.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	http.ServeFile(w, r, path)
}

// ServeMasterPlaylist serves the ladder's master playlist.
func (h *Handlers) ServeMasterPlaylist(w http.ResponseWriter, r *http.Request) {
	v, ok := h.readyVideo(w, r)
	if !ok {
		return
	}
	h.serveHLSFile(w, r, v.VideoID, "master.m3u8", playlistContentType)
}

// ServeVariantPlaylist serves one rendition's media playlist.
func (h *Handlers) ServeVariantPlaylist(w http.ResponseWriter, r *http.Request) {
	v, ok := h.readyVideo(w, r)
	if !ok {
		return
	}
	variant := mux.Vars(r)["variant"]
	h.serveHLSFile(w, r, v.VideoID, variant+"/playlist.m3u8", playlistContentType)
}

// ServeSegment serves one media segment.
func (h *Handlers) ServeSegment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.readyVideo(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	h.serveHLSFile(w, r, v.VideoID, vars["variant"]+"/"+vars["segment"], segmentContentType)
}
