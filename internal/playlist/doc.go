// Package playlist parses HLS playlists: master playlists for their
// variant references and media playlists for segment durations.
//
// It implements only the subset of the M3U8 format the duration fallback
// needs; it is not a general HLS parser.
package playlist
