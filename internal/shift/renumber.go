package shift

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/mgpai22/subslide/internal/subtitle"
)

// sequence lines are always written with CRLF
const sequenceEOL = "\r\n"

// Renumber copies a shifted SRT stream from r to w, dropping every block
// numbered below firstValid along with anything before the first kept block,
// and numbering the kept blocks from 1. Blocks without a sequence line are
// numbered by their position, as Shift does, and gain one when kept. It
// returns how many blocks were kept. With firstValid == NoValidBlock nothing
// is written.
func Renumber(r io.Reader, w io.Writer, firstValid int) (int, error) {
	lr := subtitle.NewLineReader(r)
	bw := bufio.NewWriter(w)

	kept := 0
	blocks := 0
	inKeptBlock := false
	hasSequence := false

	keep := func(n int) (bool, error) {
		if firstValid == NoValidBlock || n < firstValid {
			return false, nil
		}
		kept++
		if _, err := bw.WriteString(strconv.Itoa(n-firstValid+1) + sequenceEOL); err != nil {
			return true, fmt.Errorf("write subtitles: %w", err)
		}
		return true, nil
	}

	for {
		line, _, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return kept, fmt.Errorf("read shifted subtitles: %w", err)
		}

		if n, ok := lr.SequenceNumber(line); ok {
			hasSequence = true
			if inKeptBlock, err = keep(n); err != nil {
				return kept, err
			}
			continue
		}

		if subtitle.IsTimingLine(line.Text) {
			blocks++
			if !hasSequence {
				if inKeptBlock, err = keep(blocks); err != nil {
					return kept, err
				}
			}
			hasSequence = false
		}

		if !inKeptBlock {
			continue
		}
		if _, err := bw.WriteString(line.String()); err != nil {
			return kept, fmt.Errorf("write subtitles: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return kept, fmt.Errorf("write subtitles: %w", err)
	}
	return kept, nil
}
