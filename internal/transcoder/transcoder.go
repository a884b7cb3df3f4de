package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

// Rendition describes one rung of the adaptive-bitrate ladder.
type Rendition struct {
	Name         string
	Width        int
	Height       int
	VideoBitrate string
	MaxRate      string
	BufSize      string
}

// Ladder is the fixed three-rendition ladder every video is encoded to.
// Rendition order matters: the index doubles as the variant directory name
// under the video's HLS root.
var Ladder = []Rendition{
	{Name: "360p", Width: 640, Height: 360, VideoBitrate: "800k", MaxRate: "856k", BufSize: "1200k"},
	{Name: "720p", Width: 1280, Height: 720, VideoBitrate: "2800k", MaxRate: "2996k", BufSize: "4200k"},
	{Name: "1080p", Width: 1920, Height: 1080, VideoBitrate: "5000k", MaxRate: "5350k", BufSize: "7500k"},
}

// segmentSeconds is the fixed HLS segment duration.
const segmentSeconds = 10

// Transcoder invokes ffmpeg to produce the HLS ladder for a video. One
// invocation produces all renditions plus the master playlist.
type Transcoder struct {
	hlsRoot    string
	ffmpegPath string

	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// New creates a Transcoder writing under hlsRoot. ffmpegPath may be empty,
// in which case "ffmpeg" is resolved from PATH.
func New(hlsRoot, ffmpegPath string) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		hlsRoot:    hlsRoot,
		ffmpegPath: ffmpegPath,
		processes:  make(map[string]*exec.Cmd),
	}
}

// OutputDir returns the HLS tree root for a video id.
func (t *Transcoder) OutputDir(videoID string) string {
	return filepath.Join(t.hlsRoot, videoID)
}

// MasterPlaylistPath returns the canonical master playlist location for a
// video id.
func (t *Transcoder) MasterPlaylistPath(videoID string) string {
	return filepath.Join(t.hlsRoot, videoID, "master.m3u8")
}

// Run encodes the source file into the full ladder under
// <hlsRoot>/<videoID>/. It blocks until ffmpeg exits. A non-zero exit is
// fatal for this call; partial output already on disk is left in place and
// the invocation is not retried.
func (t *Transcoder) Run(ctx context.Context, videoID, sourcePath string) error {
	outputDir := t.OutputDir(videoID)

	// ffmpeg does not create the %v rendition directories itself.
	for i := range Ladder {
		dir := filepath.Join(outputDir, strconv.Itoa(i))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create rendition directory %s: %w", dir, err)
		}
	}

	args := buildArgs(sourcePath, outputDir)
	logging.Debug("ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.processMu.Lock()
	t.processes[videoID] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, videoID)
		t.processMu.Unlock()
	}()

	start := time.Now()
	metrics.TranscodeActiveJobs.Inc()
	defer metrics.TranscodeActiveJobs.Dec()

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			metrics.TranscodeJobsTotal.WithLabelValues("canceled").Inc()
			return ctx.Err()
		}
		metrics.TranscodeJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("ffmpeg exited with error: %w\n%s", err, stderrTail(&stderr))
	}

	metrics.TranscodeJobsTotal.WithLabelValues("success").Inc()
	metrics.TranscodeDuration.Observe(elapsed.Seconds())
	logging.Info("Transcoded %s in %v (%d renditions)", videoID, elapsed.Round(time.Millisecond), len(Ladder))
	return nil
}

// Cleanup kills any encode processes still running; called on shutdown.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for id, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcode process for video %s", id)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcode process for %s: %v", id, err)
			}
		}
	}
}

// buildArgs assembles the single ffmpeg invocation that produces every
// rendition and the master playlist. Each rendition maps the source video
// and audio once; var_stream_map pairs them into variant streams whose
// index names the output subdirectory.
func buildArgs(sourcePath, outputDir string) []string {
	args := []string{"-y", "-i", sourcePath}

	streamPairs := make([]string, 0, len(Ladder))
	for i, r := range Ladder {
		args = append(args, "-map", "0:v:0", "-map", "0:a:0")
		args = append(args,
			fmt.Sprintf("-filter:v:%d", i), fmt.Sprintf("scale=-2:%d", r.Height),
			fmt.Sprintf("-b:v:%d", i), r.VideoBitrate,
			fmt.Sprintf("-maxrate:v:%d", i), r.MaxRate,
			fmt.Sprintf("-bufsize:v:%d", i), r.BufSize,
		)
		streamPairs = append(streamPairs, fmt.Sprintf("v:%d,a:%d", i, i))
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ac", "2",
		"-var_stream_map", strings.Join(streamPairs, " "),
		"-master_pl_name", "master.m3u8",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(outputDir, "%v", "segment_%03d.ts"),
		filepath.Join(outputDir, "%v", "playlist.m3u8"),
	)

	return args
}

// stderrTail returns the last portion of ffmpeg's stderr for diagnosis.
func stderrTail(buf *bytes.Buffer) string {
	const max = 500
	s := buf.String()
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
