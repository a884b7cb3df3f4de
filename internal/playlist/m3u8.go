package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"video-streamer/internal/logging"
)

// Master represents a parsed HLS master playlist.
type Master struct {
	Path     string   `json:"path"`
	Variants []string `json:"variants"` // variant playlist URIs, in listed order
}

// extinfPrefix marks a segment duration annotation in a media playlist,
// e.g. "#EXTINF:10.000000,".
const extinfPrefix = "#EXTINF:"

// ParseMaster reads an HLS master playlist and returns the variant playlist
// URIs it references. Lines starting with '#' are tags; every other
// non-empty line is a variant URI.
func ParseMaster(path string) (*Master, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Master{Path: path}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.Variants = append(m.Variants, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read master playlist: %w", err)
	}

	return m, nil
}

// FirstVariant returns the first variant URI in the master playlist, or ""
// when the playlist references none.
func (m *Master) FirstVariant() string {
	if len(m.Variants) == 0 {
		return ""
	}
	return m.Variants[0]
}

// ResolveVariant turns a variant URI from this master playlist into a
// filesystem path relative to the master's own directory.
func (m *Master) ResolveVariant(uri string) string {
	return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(uri))
}

// VariantDir strips the playlist filename from a variant URI, leaving the
// rendition directory ("0/playlist.m3u8" -> "0").
func VariantDir(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx != -1 {
		return uri[:idx]
	}
	return ""
}

// SumSegmentDurations reads a variant (media) playlist and returns the sum
// of its #EXTINF segment durations in seconds. Lines whose duration does
// not parse are skipped rather than failing the whole computation.
func SumSegmentDurations(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var total float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, extinfPrefix) {
			continue
		}

		// Format: #EXTINF:<duration>,<optional title>
		value := strings.TrimPrefix(line, extinfPrefix)
		if idx := strings.Index(value, ","); idx != -1 {
			value = value[:idx]
		}

		d, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			logging.Warn("skipping unparseable segment duration: %q", line)
			continue
		}
		total += d
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read variant playlist: %w", err)
	}

	return total, nil
}
