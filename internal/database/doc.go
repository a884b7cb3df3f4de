// Package database implements the video metadata store on SQLite.
//
// One row per uploaded video tracks identity, source location, processing
// status, and the lazily derived duration and thumbnail path. The store
// and the HLS filesystem tree are never updated atomically together; the
// pipeline accepts eventual consistency between them.
package database
