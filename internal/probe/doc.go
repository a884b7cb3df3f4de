// Package probe resolves the playable duration of a transcoded video.
//
// The primary strategy shells out to ffprobe against the HLS master
// playlist; when that fails or times out, the segment durations of the
// first variant playlist are summed instead. Either way the result is a
// best-effort figure the caller caches, never recomputed once stored.
package probe
