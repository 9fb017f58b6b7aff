package subtitle

import (
	"bufio"
	"io"
	"strings"
)

// LineReader reads a subtitle stream line by line, keeping each line's
// terminator and allowing one line of lookahead.
type LineReader struct {
	r      *bufio.Reader
	num    int
	peeked *Line
	err    error
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next line and its 1-based number. It returns io.EOF once
// the stream is exhausted.
func (lr *LineReader) Next() (Line, int, error) {
	if lr.peeked != nil {
		line := *lr.peeked
		lr.peeked = nil
		lr.num++
		return line, lr.num, nil
	}
	line, err := lr.read()
	if err != nil {
		return Line{}, lr.num, err
	}
	lr.num++
	return line, lr.num, nil
}

// Peek returns the line Next would return without consuming it.
func (lr *LineReader) Peek() (Line, bool) {
	if lr.peeked != nil {
		return *lr.peeked, true
	}
	line, err := lr.read()
	if err != nil {
		return Line{}, false
	}
	lr.peeked = &line
	return line, true
}

func (lr *LineReader) read() (Line, error) {
	if lr.err != nil {
		return Line{}, lr.err
	}
	raw, err := lr.r.ReadString('\n')
	if err != nil {
		lr.err = err
		if raw == "" {
			return Line{}, err
		}
	}

	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return Line{Text: raw[:len(raw)-2], EOL: "\r\n"}, nil
	case strings.HasSuffix(raw, "\n"):
		return Line{Text: raw[:len(raw)-1], EOL: "\n"}, nil
	default:
		return Line{Text: raw}, nil
	}
}
