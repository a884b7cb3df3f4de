package videos

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"video-streamer/internal/database"
	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
	"video-streamer/internal/probe"
	"video-streamer/internal/thumbs"
	"video-streamer/internal/transcoder"
)

var (
	// ErrNotFound mirrors the database sentinel for callers that only
	// import this package.
	ErrNotFound = database.ErrNotFound

	// ErrNotReady is returned for operations that need a finished HLS
	// tree while the video is still uploaded, transcoding, or failed.
	ErrNotReady = errors.New("video is not ready for playback")
)

// queueCapacity bounds how many uploads may wait for a transcode worker.
const queueCapacity = 256

// Service owns the video lifecycle: ingest, background transcoding,
// lazy metadata derivation, and teardown. All handlers go through it.
type Service struct {
	db        *database.Database
	tc        *transcoder.Transcoder
	prober    *probe.Prober
	thumbs    *thumbs.Generator
	sourceDir string

	queue chan string

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	durations singleflight.Group

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewService wires the lifecycle service together. sourceDir is where
// uploaded originals are kept verbatim.
func NewService(db *database.Database, tc *transcoder.Transcoder, prober *probe.Prober, tg *thumbs.Generator, sourceDir string) *Service {
	return &Service{
		db:        db,
		tc:        tc,
		prober:    prober,
		thumbs:    tg,
		sourceDir: sourceDir,
		queue:     make(chan string, queueCapacity),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Start launches the transcode worker pool and re-queues work interrupted
// by a previous shutdown.
func (s *Service) Start(ctx context.Context, workers int) error {
	s.baseCtx, s.stop = context.WithCancel(ctx)

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	logging.Info("Started %d transcode workers", workers)

	return s.recoverInterrupted(ctx)
}

// Stop cancels running jobs and waits for the workers to drain.
func (s *Service) Stop() {
	if s.stop != nil {
		s.stop()
	}
	s.tc.Cleanup()
	s.wg.Wait()
}

// recoverInterrupted re-enqueues rows a previous process left mid-pipeline.
// Rows stuck in transcoding are reset first; their partial HLS output is
// overwritten by the fresh encode.
func (s *Service) recoverInterrupted(ctx context.Context) error {
	stuck, err := s.db.ListVideosByStatus(ctx, database.StatusTranscoding)
	if err != nil {
		return err
	}
	for _, v := range stuck {
		if err := s.db.UpdateStatus(ctx, v.VideoID, database.StatusUploaded); err != nil {
			logging.Warn("failed to reset interrupted video %s: %v", v.VideoID, err)
		}
	}

	pending, err := s.db.ListVideosByStatus(ctx, database.StatusUploaded)
	if err != nil {
		return err
	}
	for _, v := range pending {
		s.enqueue(v.VideoID)
	}
	if n := len(stuck) + len(pending); n > 0 {
		logging.Info("Re-queued %d interrupted videos", n)
	}
	return nil
}

// enqueue hands a video id to the worker pool. Returns false when the
// queue is full or the service is shutting down.
func (s *Service) enqueue(videoID string) bool {
	select {
	case s.queue <- videoID:
		metrics.TranscodeQueueDepth.Set(float64(len(s.queue)))
		return true
	default:
		logging.Error("Transcode queue full, dropping video %s", videoID)
		return false
	}
}

func (s *Service) worker(n int) {
	defer s.wg.Done()
	logging.Debug("Transcode worker %d started", n)

	for {
		select {
		case <-s.baseCtx.Done():
			return
		case videoID := <-s.queue:
			metrics.TranscodeQueueDepth.Set(float64(len(s.queue)))
			s.process(videoID)
		}
	}
}

// process runs one transcode job under a per-video cancellable context so
// a concurrent delete can abort it.
func (s *Service) process(videoID string) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	s.cancelMu.Lock()
	s.cancels[videoID] = cancel
	s.cancelMu.Unlock()
	defer func() {
		s.cancelMu.Lock()
		delete(s.cancels, videoID)
		s.cancelMu.Unlock()
	}()

	v, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Error("failed to load video %s for transcoding: %v", videoID, err)
		}
		return
	}

	if err := s.db.UpdateStatus(ctx, videoID, database.StatusTranscoding); err != nil {
		logging.Error("failed to mark video %s transcoding: %v", videoID, err)
		return
	}

	err = s.tc.Run(ctx, videoID, v.FilePath)
	if err != nil {
		if ctx.Err() != nil {
			// Canceled by delete or shutdown. The row is either gone
			// already or will be retried on next startup.
			logging.Info("Transcode of %s canceled", videoID)
			return
		}
		logging.Error("Transcode of %s failed: %v", videoID, err)
		if uerr := s.db.UpdateStatus(context.Background(), videoID, database.StatusFailed); uerr != nil && !errors.Is(uerr, database.ErrNotFound) {
			logging.Error("failed to mark video %s failed: %v", videoID, uerr)
		}
		return
	}

	if err := s.db.UpdateStatus(context.Background(), videoID, database.StatusReady); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Error("failed to mark video %s ready: %v", videoID, err)
		}
		return
	}
	logging.Info("Video %s is ready", videoID)
}

// cancelJob aborts an in-flight transcode for the id, if any.
func (s *Service) cancelJob(videoID string) {
	s.cancelMu.Lock()
	cancel, ok := s.cancels[videoID]
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// Get returns a single video record.
func (s *Service) Get(ctx context.Context, videoID string) (*database.Video, error) {
	return s.db.GetVideo(ctx, videoID)
}

// List returns all videos, newest first, filling in missing durations for
// ready videos as a best effort.
func (s *Service) List(ctx context.Context) ([]*database.Video, error) {
	videos, err := s.db.ListVideos(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range videos {
		if v.Status != database.StatusReady || v.Duration != nil {
			continue
		}
		seconds, derr := s.Duration(ctx, v.VideoID)
		if derr != nil {
			logging.Warn("failed to resolve duration for %s: %v", v.VideoID, derr)
			continue
		}
		v.Duration = &seconds
	}
	return videos, nil
}

// RequeueFailed resets failed videos to uploaded and puts them back on the
// transcode queue. Returns the number re-queued.
func (s *Service) RequeueFailed(ctx context.Context) (int, error) {
	failed, err := s.db.ListVideosByStatus(ctx, database.StatusFailed)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, v := range failed {
		if err := s.db.UpdateStatus(ctx, v.VideoID, database.StatusUploaded); err != nil {
			logging.Warn("failed to reset video %s: %v", v.VideoID, err)
			continue
		}
		if s.enqueue(v.VideoID) {
			n++
		}
	}
	return n, nil
}
