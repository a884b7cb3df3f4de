package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ChunkSize is the fixed window served per range request. Clients walk the
// file one window at a time.
const ChunkSize int64 = 1 << 20

// ErrUnsatisfiable is returned when a range start lies at or beyond the
// end of the file.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// ErrMalformedRange is returned for Range headers that do not match the
// supported "bytes=<start>-" form.
var ErrMalformedRange = errors.New("malformed range header")

// ParseRangeStart extracts the start offset from a Range header. Only the
// open-ended "bytes=<start>-" form is supported; an explicit end position
// is ignored because the response window is always chunk-bounded. Callers
// handle an absent header before parsing; an empty string is malformed.
func ParseRangeStart(header string) (int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, ErrMalformedRange
	}

	dash := strings.IndexByte(spec, '-')
	if dash <= 0 {
		return 0, ErrMalformedRange
	}

	start, err := strconv.ParseInt(spec[:dash], 10, 64)
	if err != nil || start < 0 {
		return 0, ErrMalformedRange
	}
	return start, nil
}

// Window is one chunk-bounded slice of a file, inclusive on both ends.
type Window struct {
	Start int64
	End   int64
	Total int64
}

// RangeWindow computes the slice to serve for a request starting at start
// within a file of size total: at most ChunkSize bytes, clamped to the end
// of the file.
func RangeWindow(start, total int64) (Window, error) {
	if start >= total || start < 0 {
		return Window{}, ErrUnsatisfiable
	}

	end := start + ChunkSize - 1
	if end > total-1 {
		end = total - 1
	}
	return Window{Start: start, End: end, Total: total}, nil
}

// Len returns the number of bytes in the window.
func (w Window) Len() int64 {
	return w.End - w.Start + 1
}

// ContentRange formats the Content-Range header value for the window.
func (w Window) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Total)
}
