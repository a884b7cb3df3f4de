// Package videos implements the video lifecycle behind the HTTP API.
//
// Uploads are stored verbatim and queued for background transcoding by a
// fixed worker pool; each video carries a persisted status (uploaded,
// transcoding, ready, failed) that clients poll. Duration and thumbnail
// are derived lazily on first request and cached. Deletion cancels any
// in-flight encode, removes artifacts best effort, and always takes the
// metadata row with it.
package videos
