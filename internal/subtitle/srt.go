package subtitle

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// loose on purpose: anything shaped like a timing line must then parse
// strictly or the file is rejected
var timingRegex = regexp.MustCompile(
	`^\s*(\d+:\d+:\d+[,.]\d+)\s*-->\s*(\d+:\d+:\d+[,.]\d+)(.*)$`,
)

const bom = "\ufeff"

var sequenceRegex = regexp.MustCompile(`^\d+$`)

// start and end of a block, plus anything trailing the end timestamp
// (e.g. position coordinates)
type Timing struct {
	Start time.Duration
	End   time.Duration
	Tail  string
}

// String renders the timing line without a terminator.
func (t Timing) String() string {
	return FormatTimestamp(t.Start) + " --> " + FormatTimestamp(t.End) + t.Tail
}

// IsTimingLine reports whether text has the shape of "start --> end".
func IsTimingLine(text string) bool {
	return timingRegex.MatchString(text)
}

// ParseTimingLine parses a "start --> end" line. ok is false when text is not
// a timing line; err is a *TimestampError when it is one but either
// timestamp is malformed.
func ParseTimingLine(text string) (timing Timing, ok bool, err error) {
	matches := timingRegex.FindStringSubmatch(text)
	if matches == nil {
		return Timing{}, false, nil
	}
	start, err := ParseTimestamp(matches[1])
	if err != nil {
		return Timing{}, true, err
	}
	end, err := ParseTimestamp(matches[2])
	if err != nil {
		return Timing{}, true, err
	}
	return Timing{Start: start, End: end, Tail: matches[3]}, true, nil
}

// ParseSequence returns the block number held by a bare integer line.
func ParseSequence(text string) (int, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(text, bom))
	if !sequenceRegex.MatchString(text) {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SequenceNumber reports whether line, just returned by Next, opens a block:
// a bare integer immediately followed by a timing line.
func (lr *LineReader) SequenceNumber(line Line) (int, bool) {
	n, ok := ParseSequence(line.Text)
	if !ok {
		return 0, false
	}
	next, ok := lr.Peek()
	if !ok || !IsTimingLine(next.Text) {
		return 0, false
	}
	return n, true
}

// ReadPreview collects up to n leading blocks of an SRT stream with their
// original timings.
func ReadPreview(r io.Reader, n int) ([]Preview, error) {
	if n < 1 {
		return nil, fmt.Errorf("preview size must be positive, got %d", n)
	}

	lr := NewLineReader(r)
	var previews []Preview
	var current *Preview
	var textLines []string
	sequence := ""

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(textLines, "\n")
		previews = append(previews, *current)
		current = nil
		textLines = nil
	}

	for len(previews) < n {
		line, lineNum, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading SRT file: %w", err)
		}

		if _, ok := lr.SequenceNumber(line); ok {
			flush()
			sequence = strings.TrimSpace(strings.TrimPrefix(line.Text, bom))
			continue
		}

		timing, ok, err := ParseTimingLine(line.Text)
		if err != nil {
			var tsErr *TimestampError
			if errors.As(err, &tsErr) {
				tsErr.Line = lineNum
			}
			return nil, err
		}
		if ok {
			flush()
			current = &Preview{
				Choice:    len(previews) + 1,
				Sequence:  sequence,
				StartTime: timing.Start,
				EndTime:   timing.End,
			}
			sequence = ""
			continue
		}

		if current == nil {
			continue
		}
		if strings.TrimSpace(line.Text) == "" {
			flush()
			continue
		}
		textLines = append(textLines, line.Text)
	}
	flush()

	if len(previews) == 0 {
		return nil, errors.New("no subtitle blocks found")
	}
	if len(previews) > n {
		previews = previews[:n]
	}
	return previews, nil
}
