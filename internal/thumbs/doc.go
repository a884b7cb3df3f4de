// Package thumbs generates JPEG thumbnails for transcoded videos.
//
// A representative frame is pulled a few seconds into the HLS stream via
// ffmpeg, scaled into a fixed bounding box, and stored at one canonical
// path per video id. Generation is idempotent: an existing file is reused
// and concurrent requests for the same id collapse into one extraction.
package thumbs
