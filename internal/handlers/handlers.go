package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"video-streamer/internal/database"
	"video-streamer/internal/videos"
)

// Handlers bundles the HTTP endpoints with their dependencies.
type Handlers struct {
	svc *videos.Service
	db  *database.Database
}

// New creates the handler set.
func New(svc *videos.Service, db *database.Database) *Handlers {
	return &Handlers{
		svc: svc,
		db:  db,
	}
}

// RegisterRoutes attaches every endpoint to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/videos", h.ListVideos).Methods(http.MethodGet).Name("list-videos")
	api.HandleFunc("/videos", h.UploadVideo).Methods(http.MethodPost).Name("upload-video")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods(http.MethodGet).Name("get-video")
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods(http.MethodDelete).Name("delete-video")
	api.HandleFunc("/videos/{id}/duration", h.GetDuration).Methods(http.MethodGet).Name("get-duration")
	api.HandleFunc("/videos/{id}/thumbnail", h.GetThumbnail).Methods(http.MethodGet).Name("get-thumbnail")
	api.HandleFunc("/videos/{id}/thumbnail", h.RegenerateThumbnail).Methods(http.MethodPost).Name("regenerate-thumbnail")
	api.HandleFunc("/videos/{id}/master.m3u8", h.ServeMasterPlaylist).Methods(http.MethodGet).Name("master-playlist")
	api.HandleFunc("/videos/{id}/{variant:[0-9]+}/playlist.m3u8", h.ServeVariantPlaylist).Methods(http.MethodGet).Name("variant-playlist")
	api.HandleFunc("/videos/{id}/{variant:[0-9]+}/{segment:segment_[0-9]+\\.ts}", h.ServeSegment).Methods(http.MethodGet).Name("segment")

	// Legacy progressive download endpoints, kept for older clients.
	r.HandleFunc("/videos/stream/{id}", h.StreamVideo).Methods(http.MethodGet).Name("stream-video")
	r.HandleFunc("/videos/stream/range/{id}", h.StreamVideoRange).Methods(http.MethodGet).Name("stream-video-range")

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("healthz")
	r.HandleFunc("/livez", h.Livez).Methods(http.MethodGet).Name("livez")
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet).Name("readyz")
	r.HandleFunc("/version", h.Version).Methods(http.MethodGet).Name("version")
}
