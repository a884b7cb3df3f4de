package videos

import (
	"context"

	"video-streamer/internal/database"
	"video-streamer/internal/logging"
	"video-streamer/internal/thumbs"
)

// Duration returns the video's duration in seconds, computing and caching
// it on first request. A stored value is authoritative and never
// recomputed. Concurrent first requests for the same id share one probe.
func (s *Service) Duration(ctx context.Context, videoID string) (float64, error) {
	v, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}
	if v.Duration != nil {
		return *v.Duration, nil
	}
	if v.Status != database.StatusReady {
		return 0, ErrNotReady
	}

	result, err, _ := s.durations.Do(videoID, func() (interface{}, error) {
		seconds, perr := s.prober.Duration(ctx, s.tc.MasterPlaylistPath(videoID))
		if perr != nil {
			return 0.0, perr
		}
		if uerr := s.db.UpdateDuration(ctx, videoID, seconds); uerr != nil {
			// The figure is still correct; only the cache write failed.
			logging.Warn("failed to cache duration for %s: %v", videoID, uerr)
		}
		return seconds, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

// Thumbnail returns the path of the video's thumbnail, generating it on
// first request. A stored reference pointing at a missing file is repaired
// rather than trusted.
func (s *Service) Thumbnail(ctx context.Context, videoID string) (string, error) {
	v, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return "", err
	}

	if v.ThumbnailPath != nil && thumbs.Exists(*v.ThumbnailPath) {
		return *v.ThumbnailPath, nil
	}

	if v.Status != database.StatusReady {
		return "", ErrNotReady
	}

	path, generated, err := s.thumbs.Ensure(ctx, videoID, s.tc.MasterPlaylistPath(videoID))
	if err != nil {
		return "", err
	}

	// Persist only once the file is confirmed on disk, and only when the
	// stored reference is absent or stale.
	if generated || v.ThumbnailPath == nil || *v.ThumbnailPath != path {
		if uerr := s.db.UpdateThumbnailPath(ctx, videoID, path); uerr != nil {
			logging.Warn("failed to record thumbnail for %s: %v", videoID, uerr)
		}
	}
	return path, nil
}

// RegenerateThumbnail discards any existing thumbnail and produces a fresh
// one.
func (s *Service) RegenerateThumbnail(ctx context.Context, videoID string) (string, error) {
	v, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return "", err
	}
	if v.Status != database.StatusReady {
		return "", ErrNotReady
	}

	if err := s.thumbs.Remove(videoID); err != nil {
		return "", err
	}
	return s.Thumbnail(ctx, videoID)
}

// MasterPlaylistPath exposes the canonical master playlist location for
// serving.
func (s *Service) MasterPlaylistPath(videoID string) string {
	return s.tc.MasterPlaylistPath(videoID)
}

// HLSDir exposes the HLS tree root for a video, for variant and segment
// serving.
func (s *Service) HLSDir(videoID string) string {
	return s.tc.OutputDir(videoID)
}
