package shift

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/mgpai22/subslide/internal/offset"
	"github.com/mgpai22/subslide/internal/subtitle"
)

// NoValidBlock marks a shift in which every block ended before zero.
const NoValidBlock = -1

// outcome of the shift pass
type Result struct {
	// sequence number of the first block whose shifted end is at or after
	// zero, or NoValidBlock
	FirstValid int
	// timing lines rewritten
	Blocks int
	// whether the first valid block had its start clamped to zero
	Clamped bool
}

// Shift copies an SRT stream from r to w, moving every timing line by off.
// Every other line passes through untouched.
func Shift(r io.Reader, w io.Writer, off offset.Offset) (Result, error) {
	lr := subtitle.NewLineReader(r)
	bw := bufio.NewWriter(w)
	res := Result{FirstValid: NoValidBlock}

	sequence := 0
	hasSequence := false

	for {
		line, lineNum, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read subtitles: %w", err)
		}

		if n, ok := lr.SequenceNumber(line); ok {
			sequence, hasSequence = n, true
			if _, err := bw.WriteString(line.String()); err != nil {
				return res, fmt.Errorf("write subtitles: %w", err)
			}
			continue
		}

		timing, ok, err := subtitle.ParseTimingLine(line.Text)
		if err != nil {
			var tsErr *subtitle.TimestampError
			if errors.As(err, &tsErr) {
				tsErr.Line = lineNum
			}
			return res, err
		}
		if !ok {
			if _, err := bw.WriteString(line.String()); err != nil {
				return res, fmt.Errorf("write subtitles: %w", err)
			}
			continue
		}

		res.Blocks++
		block := res.Blocks
		if hasSequence {
			block = sequence
		}
		hasSequence = false

		shifted := subtitle.Timing{
			Start: off.Apply(timing.Start),
			End:   off.Apply(timing.End),
			Tail:  timing.Tail,
		}
		if res.FirstValid == NoValidBlock && shifted.End >= 0 {
			res.FirstValid = block
			if shifted.Start < 0 {
				shifted.Start = 0
				res.Clamped = true
			}
		}

		if _, err := bw.WriteString(shifted.String() + line.EOL); err != nil {
			return res, fmt.Errorf("write subtitles: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return res, fmt.Errorf("write subtitles: %w", err)
	}
	return res, nil
}
