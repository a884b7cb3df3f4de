package streaming

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig() WriterConfig {
	return WriterConfig{
		WriteTimeout: time.Second,
		IdleTimeout:  2 * time.Second,
		ChunkSize:    8,
	}
}

func TestCopyDeliversAllBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	payload := strings.Repeat("abcdefgh", 100)

	err := Copy(context.Background(), rec, strings.NewReader(payload), testConfig())
	if err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if got := rec.Body.String(); got != payload {
		t.Errorf("body length = %d, want %d", len(got), len(payload))
	}
}

func TestWriteAfterClose(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewWriter(context.Background(), rec, testConfig())

	if err := sw.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	_, err := sw.Write([]byte("data"))
	if err != ErrStreamCanceled {
		t.Errorf("Write() after Close error = %v, want ErrStreamCanceled", err)
	}

	// Close is idempotent.
	if err := sw.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestWriteCanceledContext(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	sw := NewWriter(ctx, rec, testConfig())
	defer sw.Close()

	cancel()

	// The chunked path checks the context between pieces.
	payload := bytes.Repeat([]byte("x"), 64)
	if _, err := sw.Write(payload); err != ErrClientGone {
		t.Errorf("Write() error = %v, want ErrClientGone", err)
	}
}

func TestStats(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewWriter(context.Background(), rec, testConfig())
	defer sw.Close()

	if _, err := sw.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	written, elapsed := sw.Stats()
	if written != 10 {
		t.Errorf("Stats() written = %d, want 10", written)
	}
	if elapsed <= 0 {
		t.Errorf("Stats() elapsed = %v, want > 0", elapsed)
	}
}
