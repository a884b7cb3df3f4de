package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
	"video-streamer/internal/playlist"
)

// DefaultTimeout bounds a single ffprobe invocation. On expiry the process
// is killed and the playlist fallback takes over.
const DefaultTimeout = 10 * time.Second

// ffprobeOutput mirrors the JSON shape of
// ffprobe -show_entries format=duration -of json.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober resolves media durations from HLS master playlists. Results are
// cached by the caller; the prober itself is stateless apart from
// collapsing concurrent requests for the same playlist.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
	group       singleflight.Group
}

// New creates a Prober. ffprobePath may be empty, in which case "ffprobe"
// is resolved from PATH. A non-positive timeout falls back to
// DefaultTimeout.
func New(ffprobePath string, timeout time.Duration) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{ffprobePath: ffprobePath, timeout: timeout}
}

// Duration resolves the duration in seconds of the stream described by the
// master playlist. ffprobe is tried first; if it fails, times out, or
// reports an unusable value, the playlist segment sum is used instead.
// Concurrent calls for the same playlist share one resolution.
func (p *Prober) Duration(ctx context.Context, masterPath string) (float64, error) {
	v, err, _ := p.group.Do(masterPath, func() (interface{}, error) {
		return p.resolve(ctx, masterPath)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (p *Prober) resolve(ctx context.Context, masterPath string) (float64, error) {
	if _, err := os.Stat(masterPath); err != nil {
		return 0, fmt.Errorf("master playlist not available: %w", err)
	}

	seconds, err := p.ffprobeDuration(ctx, masterPath)
	if err == nil {
		metrics.DurationResolutionsTotal.WithLabelValues("probe", "success").Inc()
		return seconds, nil
	}
	metrics.DurationResolutionsTotal.WithLabelValues("probe", "error").Inc()
	logging.Warn("ffprobe failed for %s, falling back to playlist sum: %v", masterPath, err)

	seconds, err = playlistDuration(masterPath)
	if err != nil {
		metrics.DurationResolutionsTotal.WithLabelValues("playlist", "error").Inc()
		return 0, err
	}
	metrics.DurationResolutionsTotal.WithLabelValues("playlist", "success").Inc()
	return seconds, nil
}

// ffprobeDuration shells out to ffprobe and parses its JSON output.
func (p *Prober) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, fmt.Errorf("ffprobe timed out after %v", p.timeout)
		}
		return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	return parseFfprobeDuration(stdout.Bytes())
}

// parseFfprobeDuration extracts the duration in seconds from ffprobe's
// JSON output.
func parseFfprobeDuration(raw []byte) (float64, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported unusable duration %q: %w", out.Format.Duration, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %v", seconds)
	}
	return seconds, nil
}

// playlistDuration sums segment durations from the first variant playlist
// referenced by the master.
func playlistDuration(masterPath string) (float64, error) {
	master, err := playlist.ParseMaster(masterPath)
	if err != nil {
		return 0, err
	}

	variant := master.FirstVariant()
	if variant == "" {
		return 0, fmt.Errorf("master playlist %s references no variants", masterPath)
	}

	seconds, err := playlist.SumSegmentDurations(master.ResolveVariant(variant))
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("variant playlist %s has no usable segment durations", variant)
	}
	return seconds, nil
}
