package videos

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-streamer/internal/database"
	"video-streamer/internal/probe"
	"video-streamer/internal/thumbs"
	"video-streamer/internal/transcoder"
)

// newTestService wires a service against temp directories with the media
// tools pointed at nonexistent binaries, so only filesystem and database
// behavior is exercised.
func newTestService(t *testing.T) (*Service, *database.Database) {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{"source", "hls", "thumbs"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("failed to create %s dir: %v", dir, err)
		}
	}

	db, err := database.New(context.Background(), filepath.Join(root, "videos.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewService(
		db,
		transcoder.New(filepath.Join(root, "hls"), "/nonexistent/ffmpeg"),
		probe.New("/nonexistent/ffprobe", time.Second),
		thumbs.NewGenerator(filepath.Join(root, "thumbs"), "/nonexistent/ffmpeg"),
		filepath.Join(root, "source"),
	)
	return s, db
}

// writeHLSTree fakes a finished transcode for the id: master playlist plus
// one variant summing to 29.5 seconds.
func writeHLSTree(t *testing.T, s *Service, videoID string) {
	t.Helper()

	dir := s.HLSDir(videoID)
	if err := os.MkdirAll(filepath.Join(dir, "0"), 0o755); err != nil {
		t.Fatalf("failed to create HLS tree: %v", err)
	}

	master := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\n0/playlist.m3u8\n"
	if err := os.WriteFile(s.MasterPlaylistPath(videoID), []byte(master), 0o644); err != nil {
		t.Fatalf("failed to write master playlist: %v", err)
	}

	variant := "#EXTM3U\n#EXTINF:10.0,\nsegment_000.ts\n#EXTINF:10.0,\nsegment_001.ts\n#EXTINF:9.5,\nsegment_002.ts\n#EXT-X-ENDLIST\n"
	if err := os.WriteFile(filepath.Join(dir, "0", "playlist.m3u8"), []byte(variant), 0o644); err != nil {
		t.Fatalf("failed to write variant playlist: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0", "segment_000.ts"), []byte("ts"), 0o644); err != nil {
		t.Fatalf("failed to write segment: %v", err)
	}
}

func TestIngest(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{
		Title:       "Launch",
		Description: "Rocket launch",
		Filename:    "launch.MOV",
		ContentType: "video/quicktime",
		Body:        strings.NewReader("fake video bytes"),
	})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if v.Status != database.StatusUploaded {
		t.Errorf("Status = %q, want %q", v.Status, database.StatusUploaded)
	}
	if !strings.HasSuffix(v.FilePath, ".mov") {
		t.Errorf("FilePath = %q, want .mov extension preserved", v.FilePath)
	}

	data, err := os.ReadFile(v.FilePath)
	if err != nil {
		t.Fatalf("source file not written: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Error("source file content altered during ingest")
	}

	// The upload is waiting for a worker.
	select {
	case id := <-s.queue:
		if id != v.VideoID {
			t.Errorf("queued id = %q, want %q", id, v.VideoID)
		}
	default:
		t.Error("ingest did not queue the video for transcoding")
	}
}

func TestIngestEmptyUpload(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Ingest(context.Background(), IngestRequest{
		Title:    "Empty",
		Filename: "empty.mp4",
		Body:     strings.NewReader(""),
	})
	if !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("Ingest() error = %v, want ErrEmptyUpload", err)
	}

	videos, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("empty upload left %d rows behind", len(videos))
	}
}

func TestSourceExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"video.mp4", ".mp4"},
		{"clip.MOV", ".mov"},
		{"noextension", ".mp4"},
		{"", ".mp4"},
		{"trailingdot.", ".mp4"},
		{"weird.verylongextension", ".mp4"},
		{"../../../etc/passwd.mkv", ".mkv"},
	}

	for _, tt := range tests {
		if got := sourceExt(tt.filename); got != tt.want {
			t.Errorf("sourceExt(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestDurationLazyResolution(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	writeHLSTree(t, s, v.VideoID)
	if err := db.UpdateStatus(ctx, v.VideoID, database.StatusReady); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	got, err := s.Duration(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("Duration() error: %v", err)
	}
	if math.Abs(got-29.5) > 1e-9 {
		t.Errorf("Duration() = %v, want 29.5", got)
	}

	// The value is now cached on the row.
	stored, err := db.GetVideo(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("GetVideo() error: %v", err)
	}
	if stored.Duration == nil || math.Abs(*stored.Duration-29.5) > 1e-9 {
		t.Errorf("stored duration = %v, want 29.5", stored.Duration)
	}
}

func TestDurationNotReady(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if _, err := s.Duration(ctx, v.VideoID); !errors.Is(err, ErrNotReady) {
		t.Errorf("Duration() error = %v, want ErrNotReady", err)
	}
}

func TestDurationNotFound(t *testing.T) {
	s, _ := newTestService(t)

	if _, err := s.Duration(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Duration() error = %v, want ErrNotFound", err)
	}
}

func TestListFillsDurations(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	writeHLSTree(t, s, v.VideoID)
	if err := db.UpdateStatus(ctx, v.VideoID, database.StatusReady); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	videos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("List() returned %d videos, want 1", len(videos))
	}
	if videos[0].Duration == nil {
		t.Error("List() did not fill duration for ready video")
	}
}

func TestThumbnailNotReady(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if _, err := s.Thumbnail(ctx, v.VideoID); !errors.Is(err, ErrNotReady) {
		t.Errorf("Thumbnail() error = %v, want ErrNotReady", err)
	}
}

func TestThumbnailRepairsStaleReference(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	writeHLSTree(t, s, v.VideoID)
	if err := db.UpdateStatus(ctx, v.VideoID, database.StatusReady); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	// The row points at a file that no longer exists, but the canonical
	// thumbnail is on disk.
	if err := db.UpdateThumbnailPath(ctx, v.VideoID, "/gone/old.jpg"); err != nil {
		t.Fatalf("UpdateThumbnailPath() error: %v", err)
	}
	canonical := s.thumbs.Path(v.VideoID)
	if err := os.WriteFile(canonical, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("failed to seed canonical thumbnail: %v", err)
	}

	got, err := s.Thumbnail(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("Thumbnail() error: %v", err)
	}
	if got != canonical {
		t.Errorf("Thumbnail() = %q, want %q", got, canonical)
	}

	stored, err := db.GetVideo(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("GetVideo() error: %v", err)
	}
	if stored.ThumbnailPath == nil || *stored.ThumbnailPath != canonical {
		t.Errorf("stored thumbnail = %v, want repaired to %q", stored.ThumbnailPath, canonical)
	}
}

func TestDelete(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	writeHLSTree(t, s, v.VideoID)

	canonical := s.thumbs.Path(v.VideoID)
	if err := os.WriteFile(canonical, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("failed to seed thumbnail: %v", err)
	}

	result, err := s.Delete(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !result.Complete() {
		t.Errorf("Delete() result not complete: failed = %v", result.Failed)
	}

	for _, path := range []string{s.HLSDir(v.VideoID), canonical, v.FilePath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("artifact %s still present after delete", path)
		}
	}

	if _, err := db.GetVideo(ctx, v.VideoID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("GetVideo() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	s, _ := newTestService(t)

	if _, err := s.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSurvivesMissingArtifacts(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	// No HLS tree, no thumbnail, and the source file is already gone.
	if err := os.Remove(v.FilePath); err != nil {
		t.Fatalf("failed to remove source: %v", err)
	}

	result, err := s.Delete(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !result.Complete() {
		t.Errorf("missing artifacts should not count as failures: %v", result.Failed)
	}

	if _, err := db.GetVideo(ctx, v.VideoID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("row survived delete: %v", err)
	}
}

func TestRequeueFailed(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	v, err := s.Ingest(ctx, IngestRequest{Title: "T", Filename: "t.mp4", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	// Drain the ingest enqueue so the requeue is observable.
	<-s.queue

	if err := db.UpdateStatus(ctx, v.VideoID, database.StatusFailed); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	n, err := s.RequeueFailed(ctx)
	if err != nil {
		t.Fatalf("RequeueFailed() error: %v", err)
	}
	if n != 1 {
		t.Errorf("RequeueFailed() = %d, want 1", n)
	}

	stored, err := db.GetVideo(ctx, v.VideoID)
	if err != nil {
		t.Fatalf("GetVideo() error: %v", err)
	}
	if stored.Status != database.StatusUploaded {
		t.Errorf("Status = %q, want %q", stored.Status, database.StatusUploaded)
	}
}

func TestRemoveTree(t *testing.T) {
	root := t.TempDir()
	tree := filepath.Join(root, "vid")
	if err := os.MkdirAll(filepath.Join(tree, "0"), 0o755); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	for _, f := range []string{"master.m3u8", "0/playlist.m3u8", "0/segment_000.ts"} {
		if err := os.WriteFile(filepath.Join(tree, f), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}

	if failed := removeTree(tree); len(failed) != 0 {
		t.Errorf("removeTree() failures: %v", failed)
	}
	if _, err := os.Stat(tree); !os.IsNotExist(err) {
		t.Error("tree still present after removeTree()")
	}

	// Removing a nonexistent tree is a no-op.
	if failed := removeTree(filepath.Join(root, "missing")); failed != nil {
		t.Errorf("removeTree() on missing root = %v, want nil", failed)
	}
}
