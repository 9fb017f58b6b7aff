package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const day = 24 * time.Hour

var timestampRegex = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})$`)

// ParseTimestamp parses an SRT timestamp (HH:MM:SS,mmm) into the time elapsed
// since midnight.
func ParseTimestamp(text string) (time.Duration, error) {
	matches := timestampRegex.FindStringSubmatch(text)
	if matches == nil {
		return 0, &TimestampError{Value: text, Reason: "expected HH:MM:SS,mmm"}
	}
	return parseSRTTimestamp(text, matches[1], matches[2], matches[3], matches[4])
}

func parseSRTTimestamp(
	text, hours, minutes, seconds, millis string,
) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, &TimestampError{Value: text, Reason: err.Error()}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, &TimestampError{Value: text, Reason: err.Error()}
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, &TimestampError{Value: text, Reason: err.Error()}
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, &TimestampError{Value: text, Reason: err.Error()}
	}

	switch {
	case h > 23:
		return 0, &TimestampError{Value: text, Reason: "hours out of range"}
	case m > 59:
		return 0, &TimestampError{Value: text, Reason: "minutes out of range"}
	case s > 59:
		return 0, &TimestampError{Value: text, Reason: "seconds out of range"}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatTimestamp renders d as HH:MM:SS,mmm. Sub-millisecond precision is
// truncated and values outside a single day wrap around midnight.
func FormatTimestamp(d time.Duration) string {
	d = ((d % day) + day) % day
	d = d.Truncate(time.Millisecond)

	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60
	millis := int(d/time.Millisecond) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
