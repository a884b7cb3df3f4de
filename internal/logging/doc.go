// Package logging provides a leveled printf-style logging facade for the
// video streamer, backed by zerolog.
//
// Levels: DEBUG, INFO, WARN, ERROR, FATAL. The level is configured via the
// LOG_LEVEL environment variable; DEBUG=true forces debug level.
package logging
