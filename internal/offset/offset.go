package offset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/subslide/internal/subtitle"
)

// which way the subtitles move
type Direction int

const (
	// Later delays the subtitles (offset added).
	Later Direction = iota
	// Sooner advances the subtitles (offset subtracted).
	Sooner
)

func (d Direction) String() string {
	if d == Sooner {
		return "sooner"
	}
	return "later"
}

// Offset is the magnitude and direction applied to every timestamp.
type Offset struct {
	Amount    time.Duration
	Direction Direction
}

// Signed returns the offset as a positive or negative duration.
func (o Offset) Signed() time.Duration {
	if o.Direction == Sooner {
		return -o.Amount
	}
	return o.Amount
}

// Apply shifts t by the offset.
func (o Offset) Apply(t time.Duration) time.Duration {
	return t + o.Signed()
}

// Invert returns the offset that undoes o.
func (o Offset) Invert() Offset {
	if o.Direction == Sooner {
		return Offset{Amount: o.Amount, Direction: Later}
	}
	return Offset{Amount: o.Amount, Direction: Sooner}
}

func (o Offset) String() string {
	sign := "+"
	if o.Direction == Sooner {
		sign = "-"
	}
	d := o.Amount.Truncate(time.Millisecond)
	return fmt.Sprintf("%s%02d:%02d:%02d,%03d",
		sign,
		int(d/time.Hour),
		int(d/time.Minute)%60,
		int(d/time.Second)%60,
		int(d/time.Millisecond)%1000,
	)
}

// ErrFormat is wrapped by every FormatError.
var ErrFormat = errors.New("invalid offset")

// FormatError reports an offset string outside the [MM:]SS[,mmm] grammar.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf(
		"%s is not a valid offset, format is [MM:]SS[,mmm]: %s",
		e.Value,
		e.Reason,
	)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// timestamps span a single day, so no offset needs to exceed one
const maxSeconds = int(24 * time.Hour / time.Second)

var offsetRegex = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d+)(?:,(\d{1,3}))?$`)

// Parse reads an offset in [MM:]SS[,mmm] form. Milliseconds are right-padded,
// so "12,43" is 12 seconds 430 milliseconds. Without minutes the seconds may
// exceed 59 and are split into minutes and seconds ("90" is 1:30). Offsets
// longer than a day are rejected.
func Parse(text string, dir Direction) (Offset, error) {
	amount, err := parseDuration(text)
	if err != nil {
		return Offset{}, err
	}
	return Offset{Amount: amount, Direction: dir}, nil
}

func parseDuration(text string) (time.Duration, error) {
	value := strings.TrimSpace(text)
	matches := offsetRegex.FindStringSubmatch(value)
	if matches == nil {
		return 0, &FormatError{Value: text, Reason: "see help for examples"}
	}

	minutes := 0
	if matches[1] != "" {
		minutes, _ = strconv.Atoi(matches[1])
	}
	seconds, err := strconv.Atoi(matches[2])
	if err != nil || seconds > maxSeconds {
		return 0, &FormatError{Value: text, Reason: "offset too large"}
	}
	if matches[1] != "" && seconds > 59 {
		return 0, &FormatError{Value: text, Reason: "seconds out of range"}
	}
	if matches[1] == "" {
		minutes, seconds = seconds/60, seconds%60
	}
	millis := 0
	if matches[3] != "" {
		millis, _ = strconv.Atoi(matches[3] + strings.Repeat("0", 3-len(matches[3])))
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// ParseTarget reads the time a re-anchored block should start at, either in
// the offset grammar or as a full HH:MM:SS,mmm timestamp.
func ParseTarget(text string) (time.Duration, error) {
	value := strings.TrimSpace(text)
	if strings.Count(value, ":") == 2 {
		target, err := subtitle.ParseTimestamp(value)
		if err != nil {
			return 0, &FormatError{Value: text, Reason: err.Error()}
		}
		return target, nil
	}
	return parseDuration(text)
}

// Reanchor returns the offset that moves a block starting at original so it
// starts at target instead.
func Reanchor(original, target time.Duration) Offset {
	if original > target {
		return Offset{Amount: original - target, Direction: Sooner}
	}
	return Offset{Amount: target - original, Direction: Later}
}
