package subtitle

import (
	"errors"
	"fmt"
	"time"
)

// single line of a subtitle file, split from its terminator
type Line struct {
	Text string
	EOL  string // "\r\n", "\n" or "" for an unterminated last line
}

// String returns the line as it appeared in the file.
func (l Line) String() string {
	return l.Text + l.EOL
}

// represents one of the first blocks offered for re-anchoring
type Preview struct {
	Choice    int // 1-based position in the file
	Sequence  string
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// ErrTimestampFormat is wrapped by every TimestampError.
var ErrTimestampFormat = errors.New("invalid timestamp")

// TimestampError reports a timestamp that does not match HH:MM:SS,mmm or
// has a field out of range.
type TimestampError struct {
	Value  string
	Line   int // 0 when not parsed from a file
	Reason string
}

func (e *TimestampError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid timestamp %q: %s", e.Line, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid timestamp %q: %s", e.Value, e.Reason)
}

func (e *TimestampError) Unwrap() error {
	return ErrTimestampFormat
}
