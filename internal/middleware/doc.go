// Package middleware provides the HTTP middleware chain: W3C access
// logging, Prometheus request metrics, and gzip compression for
// compressible payloads.
package middleware
