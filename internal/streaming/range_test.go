package streaming

import (
	"errors"
	"testing"
)

func TestParseRangeStart(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    int64
		wantErr bool
	}{
		{name: "empty header", header: "", wantErr: true},
		{name: "zero start", header: "bytes=0-", want: 0},
		{name: "mid file", header: "bytes=1048576-", want: 1048576},
		{name: "explicit end ignored", header: "bytes=100-200", want: 100},
		{name: "missing unit", header: "0-", wantErr: true},
		{name: "wrong unit", header: "items=0-", wantErr: true},
		{name: "suffix form", header: "bytes=-500", wantErr: true},
		{name: "no dash", header: "bytes=100", wantErr: true},
		{name: "garbage start", header: "bytes=abc-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRangeStart(tt.header)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRange) {
					t.Errorf("ParseRangeStart(%q) error = %v, want ErrMalformedRange", tt.header, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRangeStart(%q) error: %v", tt.header, err)
			}
			if got != tt.want {
				t.Errorf("ParseRangeStart(%q) = %d, want %d", tt.header, got, tt.want)
			}
		})
	}
}

func TestRangeWindow(t *testing.T) {
	tests := []struct {
		name      string
		start     int64
		total     int64
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{name: "full chunk", start: 0, total: 10 * ChunkSize, wantStart: 0, wantEnd: ChunkSize - 1},
		{name: "clamped at eof", start: 10*ChunkSize - 100, total: 10 * ChunkSize, wantStart: 10*ChunkSize - 100, wantEnd: 10*ChunkSize - 1},
		{name: "small file", start: 0, total: 500, wantStart: 0, wantEnd: 499},
		{name: "last byte", start: 499, total: 500, wantStart: 499, wantEnd: 499},
		{name: "start at eof", start: 500, total: 500, wantErr: true},
		{name: "start past eof", start: 501, total: 500, wantErr: true},
		{name: "negative start", start: -1, total: 500, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RangeWindow(tt.start, tt.total)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsatisfiable) {
					t.Errorf("RangeWindow(%d, %d) error = %v, want ErrUnsatisfiable", tt.start, tt.total, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RangeWindow(%d, %d) error: %v", tt.start, tt.total, err)
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("RangeWindow(%d, %d) = [%d, %d], want [%d, %d]",
					tt.start, tt.total, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if got.Total != tt.total {
				t.Errorf("Total = %d, want %d", got.Total, tt.total)
			}
		})
	}
}

func TestWindowHelpers(t *testing.T) {
	w := Window{Start: 100, End: 299, Total: 1000}

	if got, want := w.Len(), int64(200); got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if got, want := w.ContentRange(), "bytes 100-299/1000"; got != want {
		t.Errorf("ContentRange() = %q, want %q", got, want)
	}
}
