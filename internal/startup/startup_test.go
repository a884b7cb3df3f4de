package startup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOURCE_DIR", filepath.Join(root, "source"))
	t.Setenv("HLS_DIR", filepath.Join(root, "hls"))
	t.Setenv("THUMBNAIL_DIR", filepath.Join(root, "thumbs"))
	t.Setenv("DATABASE_DIR", filepath.Join(root, "db"))
	t.Setenv("PORT", "")
	t.Setenv("METRICS_PORT", "")
	t.Setenv("PROBE_TIMEOUT", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true by default")
	}
	if config.DatabasePath != filepath.Join(config.DatabaseDir, "videos.db") {
		t.Errorf("DatabasePath = %q, want under database dir", config.DatabasePath)
	}

	// All four directories were created.
	for _, dir := range []string{config.SourceDir, config.HLSDir, config.ThumbnailDir, config.DatabaseDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestLoadConfigInvalidProbeTimeout(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOURCE_DIR", filepath.Join(root, "source"))
	t.Setenv("HLS_DIR", filepath.Join(root, "hls"))
	t.Setenv("THUMBNAIL_DIR", filepath.Join(root, "thumbs"))
	t.Setenv("DATABASE_DIR", filepath.Join(root, "db"))
	t.Setenv("PROBE_TIMEOUT", "not-a-duration")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if config.ProbeTimeout.Seconds() != 10 {
		t.Errorf("ProbeTimeout = %v, want 10s fallback", config.ProbeTimeout)
	}
}

func TestLoadConfigUnwritableDatabaseDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("write permissions are not enforced for root")
	}

	root := t.TempDir()
	dbDir := filepath.Join(root, "db")
	if err := os.MkdirAll(dbDir, 0o555); err != nil {
		t.Fatalf("failed to create read-only dir: %v", err)
	}

	t.Setenv("SOURCE_DIR", filepath.Join(root, "source"))
	t.Setenv("HLS_DIR", filepath.Join(root, "hls"))
	t.Setenv("THUMBNAIL_DIR", filepath.Join(root, "thumbs"))
	t.Setenv("DATABASE_DIR", dbDir)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unwritable database directory")
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"false", true, false},
		{"1", false, true},
		{"0", true, false},
		{"garbage", true, true},
	}

	for _, tt := range tests {
		t.Setenv("STARTUP_TEST_BOOL", tt.value)
		if got := getEnvBool("STARTUP_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Version is empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}
