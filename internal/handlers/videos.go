package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"video-streamer/internal/videos"
)

// maxUploadMemory is the in-memory buffer for multipart parsing; larger
// uploads spill to temp files.
const maxUploadMemory = 32 << 20

// UploadVideo accepts a multipart upload (fields: title, description,
// file) and queues it for transcoding. Responds 201 with the new record.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	v, err := h.svc.Ingest(r.Context(), videos.IngestRequest{
		Title:       title,
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		ContentType: detectContentType(file, header),
		Body:        file,
	})
	if err != nil {
		if errors.Is(err, videos.ErrEmptyUpload) {
			writeError(w, http.StatusBadRequest, "uploaded file is empty")
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// detectContentType prefers the client-declared part type and falls back
// to sniffing the first bytes. The reader is rewound afterwards.
func detectContentType(file multipart.File, header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if _, err := file.Seek(0, 0); err != nil {
		return "application/octet-stream"
	}
	if n == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}

// ListVideos returns all videos, newest first.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetVideo returns one video record, including its processing status.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetDuration returns the video duration, deriving it on first request.
func (h *Handlers) GetDuration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	seconds, err := h.svc.Duration(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videoId":  id,
		"duration": seconds,
	})
}

// DeleteVideo tears a video down and reports which artifacts, if any,
// could not be removed.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if result.Complete() {
		writeMessage(w, http.StatusOK, "video deleted", result)
		return
	}
	writeMessage(w, http.StatusOK, "video deleted with leftover artifacts", result)
}
