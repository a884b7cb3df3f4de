package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"video-streamer/internal/database"
	"video-streamer/internal/logging"
)

// ErrEmptyUpload is returned when the uploaded file contains no bytes.
var ErrEmptyUpload = errors.New("uploaded file is empty")

// IngestRequest carries one upload into the pipeline.
type IngestRequest struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Body        io.Reader
}

// Ingest stores the uploaded file verbatim, records the metadata row, and
// queues the video for background transcoding. The returned record is in
// the uploaded state; callers poll status until it reaches ready.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*database.Video, error) {
	videoID := uuid.NewString()
	sourcePath := filepath.Join(s.sourceDir, videoID+sourceExt(req.Filename))

	written, err := writeSource(sourcePath, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if written == 0 {
		os.Remove(sourcePath)
		return nil, ErrEmptyUpload
	}

	v := &database.Video{
		VideoID:     videoID,
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
		FilePath:    sourcePath,
		Status:      database.StatusUploaded,
	}
	if err := s.db.InsertVideo(ctx, v); err != nil {
		os.Remove(sourcePath)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	if !s.enqueue(videoID) {
		// Left in uploaded state; startup recovery or a manual requeue
		// will pick it up.
		logging.Warn("Video %s accepted but not queued", videoID)
	}

	logging.Info("Ingested video %s (%d bytes)", videoID, written)
	return s.db.GetVideo(ctx, videoID)
}

// writeSource copies the upload to disk without interpreting it.
func writeSource(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}

// sourceExt preserves the upload's file extension so the encoder can rely
// on it for container detection. Unknown or missing extensions fall back
// to .mp4.
func sourceExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	// A bare "." (empty filename, or one ending in a dot) is not a real
	// extension.
	if len(ext) < 2 || len(ext) > 8 {
		return ".mp4"
	}
	return ext
}
