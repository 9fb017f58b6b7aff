package shift

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/subslide/internal/offset"
	"github.com/mgpai22/subslide/internal/subtitle"
)

const sampleSRT = "1\r\n" +
	"00:00:01,000 --> 00:00:03,000\r\n" +
	"Hi\r\n" +
	"\r\n" +
	"2\r\n" +
	"00:00:04,000 --> 00:00:06,500\r\n" +
	"Second line\r\n" +
	"spanning two rows\r\n" +
	"\r\n" +
	"3\r\n" +
	"00:00:10,000 --> 00:00:12,000\r\n" +
	"Third\r\n" +
	"\r\n" +
	"4\r\n" +
	"00:01:00,000 --> 00:01:02,250\r\n" +
	"Fourth\r\n"

func later(d time.Duration) offset.Offset {
	return offset.Offset{Amount: d, Direction: offset.Later}
}

func sooner(d time.Duration) offset.Offset {
	return offset.Offset{Amount: d, Direction: offset.Sooner}
}

// both passes in memory
func transform(t *testing.T, input string, off offset.Offset) (string, Result, int) {
	t.Helper()
	var shifted, final bytes.Buffer
	res, err := Shift(strings.NewReader(input), &shifted, off)
	require.NoError(t, err)
	kept, err := Renumber(&shifted, &final, res.FirstValid)
	require.NoError(t, err)
	return final.String(), res, kept
}

type block struct {
	seq   string
	start time.Duration
	end   time.Duration
	text  []string
}

func parseBlocks(t *testing.T, doc string) []block {
	t.Helper()
	var blocks []block
	var cur *block
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if timing, ok, err := subtitle.ParseTimingLine(line); ok {
			require.NoError(t, err)
			require.NotNil(t, cur, "timing line without sequence line")
			cur.start, cur.end = timing.Start, timing.End
			continue
		}
		if _, ok := subtitle.ParseSequence(line); ok && i+1 < len(lines) && subtitle.IsTimingLine(lines[i+1]) {
			blocks = append(blocks, block{seq: strings.TrimSpace(line)})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur != nil && line != "" {
			cur.text = append(cur.text, line)
		}
	}
	return blocks
}

func TestShiftLater(t *testing.T) {
	var out bytes.Buffer
	res, err := Shift(strings.NewReader(sampleSRT), &out, later(12*time.Second+430*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 1, res.FirstValid)
	assert.Equal(t, 4, res.Blocks)
	assert.False(t, res.Clamped)
	assert.Contains(t, out.String(), "1\r\n00:00:13,430 --> 00:00:15,430\r\nHi\r\n")
	assert.Contains(t, out.String(), "00:01:12,430 --> 00:01:14,680\r\nFourth\r\n")
}

func TestShiftPassesOtherLinesThrough(t *testing.T) {
	input := "\ufeff1\n00:00:01,000 --> 00:00:02,000 X1:100\n42\n\n"
	var out bytes.Buffer
	_, err := Shift(strings.NewReader(input), &out, later(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "\ufeff1\n00:00:02,000 --> 00:00:03,000 X1:100\n42\n\n", out.String())
}

func TestShiftFailsOnMalformedTiming(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nA\n\n2\n00:00:03,000 --> 00:00:99,000\nB\n"
	_, err := Shift(strings.NewReader(input), &bytes.Buffer{}, later(0))
	require.Error(t, err)

	var tsErr *subtitle.TimestampError
	require.True(t, errors.As(err, &tsErr))
	assert.Equal(t, 6, tsErr.Line)
	assert.ErrorIs(t, err, subtitle.ErrTimestampFormat)
}

func TestShiftDropsAndClamps(t *testing.T) {
	// block 1 ends at -2s, block 2 spans -1s..+1.5s
	out, res, kept := transform(t, sampleSRT, sooner(5*time.Second))

	assert.Equal(t, 2, res.FirstValid)
	assert.True(t, res.Clamped)
	assert.Equal(t, 3, kept)

	assert.NotContains(t, out, "Hi")
	assert.True(t, strings.HasPrefix(out, "1\r\n00:00:00,000 --> 00:00:01,500\r\nSecond line\r\n"), out)
	assert.Contains(t, out, "2\r\n00:00:05,000 --> 00:00:07,000\r\nThird\r\n")
	assert.Contains(t, out, "3\r\n00:00:55,000 --> 00:00:57,250\r\nFourth\r\n")
}

func TestShiftNoValidBlock(t *testing.T) {
	out, res, kept := transform(t, sampleSRT, sooner(10*time.Minute))
	assert.Equal(t, NoValidBlock, res.FirstValid)
	assert.Equal(t, 4, res.Blocks)
	assert.Equal(t, 0, kept)
	assert.Empty(t, out)
}

func TestShiftDayOverflowWraps(t *testing.T) {
	input := "1\n23:59:59,000 --> 23:59:59,900\nLate\n"
	var out bytes.Buffer
	_, err := Shift(strings.NewReader(input), &out, later(2*time.Second))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "00:00:01,000 --> 00:00:01,900\n")
}

func TestZeroOffsetRoundTrip(t *testing.T) {
	input := strings.ReplaceAll(sampleSRT, "\r\n", "\n")
	out, res, kept := transform(t, input, later(0))

	assert.Equal(t, 1, res.FirstValid)
	assert.Equal(t, 4, kept)
	// only sequence lines are normalised to CRLF
	want := input
	for i := 1; i <= 4; i++ {
		want = strings.Replace(want, fmt.Sprintf("%d\n00:", i), fmt.Sprintf("%d\r\n00:", i), 1)
	}
	assert.Equal(t, want, out)
}

func TestOffsetSymmetry(t *testing.T) {
	// shifting forward then back restores every timestamp exactly, for
	// any offset the grammar can express
	for _, text := range []string{"0,001", "12,43", "1:23,456", "100", "99:59,999"} {
		t.Run(text, func(t *testing.T) {
			off, err := offset.Parse(text, offset.Later)
			require.NoError(t, err)

			var there, back bytes.Buffer
			_, err = Shift(strings.NewReader(sampleSRT), &there, off)
			require.NoError(t, err)
			_, err = Shift(&there, &back, off.Invert())
			require.NoError(t, err)
			assert.Equal(t, sampleSRT, back.String())
		})
	}
}

func TestShiftPreservesBlockDuration(t *testing.T) {
	original := parseBlocks(t, sampleSRT)
	for _, off := range []offset.Offset{later(3 * time.Second), later(time.Hour), sooner(500 * time.Millisecond)} {
		var out bytes.Buffer
		_, err := Shift(strings.NewReader(sampleSRT), &out, off)
		require.NoError(t, err)

		shifted := parseBlocks(t, out.String())
		require.Len(t, shifted, len(original))
		for i := range original {
			assert.Equal(t,
				original[i].end-original[i].start,
				shifted[i].end-shifted[i].start,
				"block %d with offset %s", i+1, off,
			)
		}
	}
}

func TestRenumberContiguity(t *testing.T) {
	for _, off := range []offset.Offset{later(0), sooner(3 * time.Second), sooner(7 * time.Second), sooner(61 * time.Second)} {
		t.Run(off.String(), func(t *testing.T) {
			out, res, kept := transform(t, sampleSRT, off)
			blocks := parseBlocks(t, out)
			require.Len(t, blocks, kept)
			assert.Equal(t, res.Blocks-res.FirstValid+1, kept)
			for i, b := range blocks {
				assert.Equal(t, fmt.Sprint(i+1), b.seq)
			}
		})
	}
}

func TestDropThreshold(t *testing.T) {
	// every block whose shifted end is negative must be gone entirely
	out, res, _ := transform(t, sampleSRT, sooner(7*time.Second))
	assert.Equal(t, 3, res.FirstValid)
	assert.NotContains(t, out, "Hi")
	assert.NotContains(t, out, "Second line")
	assert.NotContains(t, out, "spanning two rows")
	assert.True(t, strings.HasPrefix(out, "1\r\n00:00:03,000 --> 00:00:05,000\r\nThird\r\n"), out)
}

func TestClampKeepsEnd(t *testing.T) {
	out, res, _ := transform(t, sampleSRT, sooner(2*time.Second))
	assert.Equal(t, 1, res.FirstValid)
	assert.True(t, res.Clamped)
	assert.True(t, strings.HasPrefix(out, "1\r\n00:00:00,000 --> 00:00:01,000\r\nHi\r\n"), out)
}

func TestRenumberDropsLeadingBoilerplate(t *testing.T) {
	input := "\ufeff# encoding: utf-8\n\n5\n00:00:01,000 --> 00:00:02,000\nA\n\n6\n00:00:03,000 --> 00:00:04,000\nB\n"
	var out bytes.Buffer
	kept, err := Renumber(strings.NewReader(input), &out, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)
	assert.Equal(t, "1\r\n00:00:01,000 --> 00:00:02,000\nA\n\n2\r\n00:00:03,000 --> 00:00:04,000\nB\n", out.String())
}

func TestRenumberKeepsNumericText(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nCountdown\n\n2\n00:00:03,000 --> 00:00:04,000\n3\n\n3\n00:00:05,000 --> 00:00:06,000\nGo\n"
	var out bytes.Buffer
	kept, err := Renumber(strings.NewReader(input), &out, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)
	assert.Equal(t, "1\r\n00:00:03,000 --> 00:00:04,000\n3\n\n2\r\n00:00:05,000 --> 00:00:06,000\nGo\n", out.String())
}

func TestRenumberUnnumberedBlocks(t *testing.T) {
	input := "00:00:01,000 --> 00:00:03,000\nA\n\n00:00:04,000 --> 00:00:05,000\nB\n"
	out, res, kept := transform(t, input, sooner(2*time.Second))

	assert.Equal(t, 1, res.FirstValid)
	assert.Equal(t, 2, res.Blocks)
	assert.Equal(t, 2, kept)
	assert.Equal(t, "1\r\n00:00:00,000 --> 00:00:01,000\nA\n\n2\r\n00:00:02,000 --> 00:00:03,000\nB\n", out)
}

func TestRenumberDropsUnnumberedBlocksBeforeFirstValid(t *testing.T) {
	input := "00:00:01,000 --> 00:00:02,000\nA\n\n00:00:04,000 --> 00:00:05,000\nB\n"
	out, res, kept := transform(t, input, sooner(3*time.Second))

	assert.Equal(t, 2, res.FirstValid)
	assert.Equal(t, 1, kept)
	assert.Equal(t, "1\r\n00:00:01,000 --> 00:00:02,000\nB\n", out)
}
