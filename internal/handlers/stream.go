package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"video-streamer/internal/logging"
	"video-streamer/internal/streaming"
)

// sourceContentType falls back to the generic binary type when the upload
// arrived without one.
func sourceContentType(declared string) string {
	if declared == "" {
		return "application/octet-stream"
	}
	return declared
}

// setNoCacheHeaders marks a progressive download response uncacheable.
func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

// StreamVideo serves the entire source file in one response.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := os.Open(v.FilePath)
	if err != nil {
		writeError(w, http.StatusNotFound, "source file not available")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stat source file")
		return
	}

	w.Header().Set("Content-Type", sourceContentType(v.ContentType))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Accept-Ranges", "bytes")

	if err := streaming.Copy(r.Context(), w, f, streaming.DefaultWriterConfig()); err != nil {
		logging.Debug("stream of %s ended early: %v", v.VideoID, err)
	}
}

// StreamVideoRange serves one chunk-bounded window of the source file,
// letting clients walk the file with successive open-ended Range
// requests. Requests without a Range header get the whole file.
func (h *Handlers) StreamVideoRange(w http.ResponseWriter, r *http.Request) {
	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		h.StreamVideo(w, r)
		return
	}

	v, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := os.Open(v.FilePath)
	if err != nil {
		writeError(w, http.StatusNotFound, "source file not available")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stat source file")
		return
	}

	start, err := streaming.ParseRangeStart(rangeHeader)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed range header")
		return
	}

	window, err := streaming.RangeWindow(start, info.Size())
	if err != nil {
		if errors.Is(err, streaming.ErrUnsatisfiable) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", info.Size()))
			writeError(w, http.StatusRequestedRangeNotSatisfiable, "range not satisfiable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute range")
		return
	}

	if _, err := f.Seek(window.Start, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to seek source file")
		return
	}

	setNoCacheHeaders(w)
	w.Header().Set("Content-Type", sourceContentType(v.ContentType))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Range", window.ContentRange())
	w.Header().Set("Content-Length", strconv.FormatInt(window.Len(), 10))
	w.WriteHeader(http.StatusPartialContent)

	if err := streaming.Copy(r.Context(), w, io.LimitReader(f, window.Len()), streaming.DefaultWriterConfig()); err != nil {
		logging.Debug("range stream of %s ended early: %v", v.VideoID, err)
	}
}
