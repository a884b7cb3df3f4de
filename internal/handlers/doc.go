// Package handlers implements the HTTP API: upload and lifecycle
// endpoints under /api/v1/videos, HLS playlist and segment delivery,
// thumbnail and duration derivation, the legacy progressive download
// routes, and the health and version probes.
package handlers
