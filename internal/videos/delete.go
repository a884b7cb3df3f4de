package videos

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"video-streamer/internal/database"
	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

// DeleteResult reports the outcome of a teardown. The metadata row always
// goes; artifact removal is best effort and failures are listed so the
// caller can surface them.
type DeleteResult struct {
	VideoID    string   `json:"videoId"`
	RowDeleted bool     `json:"rowDeleted"`
	Failed     []string `json:"failedArtifacts,omitempty"`
}

// Complete reports whether every artifact was removed.
func (r DeleteResult) Complete() bool {
	return r.RowDeleted && len(r.Failed) == 0
}

// Delete tears down a video: any running transcode is canceled, then the
// HLS tree, thumbnail, and source file are removed best effort, and
// finally the metadata row is deleted. Returns ErrNotFound when no row
// exists.
func (s *Service) Delete(ctx context.Context, videoID string) (DeleteResult, error) {
	result := DeleteResult{VideoID: videoID}

	v, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return result, err
	}

	s.cancelJob(videoID)

	result.Failed = append(result.Failed, removeTree(s.tc.OutputDir(videoID))...)

	if err := s.thumbs.Remove(videoID); err != nil {
		logging.Warn("failed to remove thumbnail for %s: %v", videoID, err)
		result.Failed = append(result.Failed, s.thumbs.Path(videoID))
	}

	if err := os.Remove(v.FilePath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove source file for %s: %v", videoID, err)
		result.Failed = append(result.Failed, v.FilePath)
	}

	if err := s.db.DeleteVideo(ctx, videoID); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return result, err
		}
		// A concurrent delete already removed the row.
	}
	result.RowDeleted = true

	if result.Complete() {
		metrics.DeletionsTotal.WithLabelValues("complete").Inc()
	} else {
		metrics.DeletionsTotal.WithLabelValues("partial").Inc()
		metrics.DeletionArtifactFailures.Add(float64(len(result.Failed)))
	}

	logging.Info("Deleted video %s (%d artifact failures)", videoID, len(result.Failed))
	return result, nil
}

// removeTree deletes a directory tree deepest first so each directory is
// empty by the time it is removed. Entries that fail to delete are
// recorded and skipped; one stubborn file must not leave the rest behind.
func removeTree(root string) []string {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	var paths []string
	var failed []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			failed = append(failed, path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		failed = append(failed, root)
		return failed
	}

	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.Remove(paths[i]); err != nil {
			logging.Warn("failed to remove %s: %v", paths[i], err)
			failed = append(failed, paths[i])
		}
	}
	return failed
}
