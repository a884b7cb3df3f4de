package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

// Thumbnail bounding box. Frames are fit inside, preserving aspect ratio.
const (
	maxWidth  = 640
	maxHeight = 360
)

// captureOffset is the timestamp the representative frame is taken at.
const captureOffset = "00:00:03"

// generateTimeout bounds a single frame extraction.
const generateTimeout = 30 * time.Second

// Generator produces and stores JPEG thumbnails for transcoded videos.
// One canonical file per video id lives under the thumbnail root;
// generation is idempotent and concurrent requests for the same id share
// a single extraction.
type Generator struct {
	thumbRoot  string
	ffmpegPath string
	group      singleflight.Group
}

// NewGenerator creates a Generator writing under thumbRoot. ffmpegPath may
// be empty, in which case "ffmpeg" is resolved from PATH.
func NewGenerator(thumbRoot, ffmpegPath string) *Generator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Generator{thumbRoot: thumbRoot, ffmpegPath: ffmpegPath}
}

// Path returns the canonical thumbnail location for a video id.
func (g *Generator) Path(videoID string) string {
	return filepath.Join(g.thumbRoot, videoID+".jpg")
}

// Exists reports whether a readable thumbnail file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Ensure returns the canonical thumbnail path for the video, generating
// the file from the HLS stream if it does not already exist. The returned
// bool reports whether a new file was generated.
func (g *Generator) Ensure(ctx context.Context, videoID, masterPath string) (string, bool, error) {
	type result struct {
		path      string
		generated bool
	}

	v, err, _ := g.group.Do(videoID, func() (interface{}, error) {
		canonical := g.Path(videoID)
		if Exists(canonical) {
			metrics.ThumbnailGenerationsTotal.WithLabelValues("cached").Inc()
			return result{path: canonical}, nil
		}
		if err := g.generate(ctx, masterPath, canonical); err != nil {
			return nil, err
		}
		return result{path: canonical, generated: true}, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(result)
	return r.path, r.generated, nil
}

// Remove deletes the canonical thumbnail for a video id. A missing file is
// not an error.
func (g *Generator) Remove(videoID string) error {
	err := os.Remove(g.Path(videoID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// generate extracts one frame from the stream, scales it into the bounding
// box, and writes the JPEG. The file only appears at its final path once
// fully written.
func (g *Generator) generate(ctx context.Context, masterPath, outPath string) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.ffmpegPath,
		"-ss", captureOffset,
		"-i", masterPath,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("frame extraction failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}

	img, err := imaging.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to decode extracted frame: %w", err)
	}

	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return err
	}

	// Keep a .jpg extension so the encoder picks the right format.
	tmp := outPath + ".tmp.jpg"
	if err := imaging.Save(thumb, tmp, imaging.JPEGQuality(85)); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Generated thumbnail %s in %v", outPath, time.Since(start).Round(time.Millisecond))
	return nil
}
