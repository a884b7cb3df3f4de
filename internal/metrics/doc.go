// Package metrics defines the Prometheus metrics exported by the video
// streamer and the dedicated metrics listener.
package metrics
