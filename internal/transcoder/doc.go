// Package transcoder wraps ffmpeg to encode an uploaded source file into
// a fixed three-rendition adaptive-bitrate HLS ladder.
//
// The encoding tool is treated as an opaque collaborator: this package
// owns the argument grammar and the output tree layout, nothing else.
package transcoder
