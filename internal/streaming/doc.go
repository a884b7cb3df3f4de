// Package streaming provides the building blocks for serving video bytes
// over HTTP: a timeout-protected response writer for long-lived transfers
// and the chunk-bounded byte-range window used by the legacy progressive
// download endpoints.
package streaming
