package database

import "time"

// Status is the per-video processing state machine, persisted in the row
// so partial failures are observable and retriable.
type Status string

const (
	// StatusUploaded means the source file and row are durable but
	// transcoding has not started.
	StatusUploaded Status = "uploaded"
	// StatusTranscoding means an encode job holds the video.
	StatusTranscoding Status = "transcoding"
	// StatusReady means the HLS ladder exists and is servable.
	StatusReady Status = "ready"
	// StatusFailed means the last encode attempt exited non-zero. Partial
	// output may exist on disk.
	StatusFailed Status = "failed"
)

// Video is the metadata record for one uploaded video. The VideoID is the
// filesystem namespace key for every derived artifact.
type Video struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ContentType   string    `json:"contentType,omitempty"`
	FilePath      string    `json:"filePath"`
	Status        Status    `json:"status"`
	Duration      *float64  `json:"duration,omitempty"`
	ThumbnailPath *string   `json:"thumbnailPath,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
