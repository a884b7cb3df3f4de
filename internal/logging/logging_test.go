package logging

import (
	"testing"
)

func TestLevelDefaultsToInfo(t *testing.T) {
	// The logger initializes once per process; with no LOG_LEVEL or DEBUG
	// set in the test environment the default must be info.
	if lvl := Level(); lvl != "info" && lvl != "debug" {
		t.Errorf("unexpected default level %q", lvl)
	}
}

func TestLoggingDoesNotPanic(t *testing.T) {
	Debug("debug %s", "message")
	Info("info %d", 42)
	Warn("warn %v", []string{"a", "b"})
	Error("error %s", "message")
}
