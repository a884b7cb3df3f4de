package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"video-streamer/internal/logging"
)

var (
	// ErrWriteTimeout indicates a single write exceeded the configured
	// timeout, usually a client draining data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client disconnected mid-stream.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates the stream was shut down on the server
	// side, via Close or context cancellation.
	ErrStreamCanceled = errors.New("stream canceled")
)

// WriterConfig tunes timeout protection for a streamed response.
type WriterConfig struct {
	// WriteTimeout bounds a single write to the client.
	WriteTimeout time.Duration
	// IdleTimeout bounds the gap between successful writes.
	IdleTimeout time.Duration
	// ChunkSize splits large writes so slow clients cannot stall one
	// giant write (0 writes as received).
	ChunkSize int
}

// DefaultWriterConfig returns the tuning used for video payloads.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// Writer wraps an http.ResponseWriter so a stalled or vanished client
// cannot pin a handler goroutine forever.
type Writer struct {
	w       http.ResponseWriter
	ctx     context.Context
	cancel  context.CancelFunc
	config  WriterConfig
	flusher http.Flusher

	mu        sync.Mutex
	closed    bool
	lastWrite time.Time
	written   int64
	started   time.Time
}

// NewWriter creates a timeout-protected writer bound to the request
// context.
func NewWriter(ctx context.Context, w http.ResponseWriter, config WriterConfig) *Writer {
	wctx, cancel := context.WithCancel(ctx)

	sw := &Writer{
		w:         w,
		ctx:       wctx,
		cancel:    cancel,
		config:    config,
		started:   time.Now(),
		lastWrite: time.Now(),
	}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}

	go sw.watchIdle()

	return sw
}

// Write implements io.Writer. Large buffers are split per ChunkSize with a
// flush after each piece.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	closed := sw.closed
	sw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	if sw.config.ChunkSize <= 0 || len(p) <= sw.config.ChunkSize {
		return sw.writeOne(p)
	}

	total := 0
	for len(p) > 0 {
		select {
		case <-sw.ctx.Done():
			return total, sw.contextError()
		default:
		}

		n := sw.config.ChunkSize
		if len(p) < n {
			n = len(p)
		}

		written, err := sw.writeOne(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]

		if sw.flusher != nil {
			sw.flusher.Flush()
		}
	}
	return total, nil
}

func (sw *Writer) writeOne(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	go func() {
		n, err := sw.w.Write(p)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			sw.mu.Lock()
			sw.lastWrite = time.Now()
			sw.written += int64(r.n)
			sw.mu.Unlock()
		}
		return r.n, r.err
	case <-time.After(sw.config.WriteTimeout):
		sw.cancel()
		return 0, ErrWriteTimeout
	case <-sw.ctx.Done():
		return 0, sw.contextError()
	}
}

func (sw *Writer) watchIdle() {
	if sw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(sw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.mu.Lock()
			idle := time.Since(sw.lastWrite)
			closed := sw.closed
			sw.mu.Unlock()

			if closed {
				return
			}
			if idle > sw.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				sw.cancel()
				return
			}
		case <-sw.ctx.Done():
			return
		}
	}
}

func (sw *Writer) contextError() error {
	if sw.ctx.Err() == context.Canceled {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close shuts the writer down. Safe to call more than once.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}
	sw.closed = true
	sw.cancel()
	return nil
}

// Stats reports bytes written and elapsed time so far.
func (sw *Writer) Stats() (int64, time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.written, time.Since(sw.started)
}

// Copy streams from r to the response with timeout protection.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config WriterConfig) error {
	sw := NewWriter(ctx, w, config)
	defer sw.Close()

	_, err := io.Copy(sw, r)

	written, elapsed := sw.Stats()
	logging.Debug("Stream completed: %d bytes in %v", written, elapsed)

	return err
}
