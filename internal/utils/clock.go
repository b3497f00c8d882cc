package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a service day in minutes.
const MinutesPerDay = 24 * 60

var ErrMalformedClock = errors.New("malformed clock time")

// SecondsPerDay is the length of a service day in seconds.
const SecondsPerDay = MinutesPerDay * 60

// ParseClock parses "HH:MM" or "HH:MM:SS" into seconds past midnight.
// Hours above 23 are accepted since schedules express after-midnight service
// that way.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || p == "" {
			return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
		}
		if i > 0 && v > 59 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
		}
		values[i] = v
	}

	seconds := values[0]*3600 + values[1]*60
	if len(values) == 3 {
		seconds += values[2]
	}
	return seconds, nil
}

// ClockDiffSeconds returns the seconds from one clock reading to the next,
// adding a full day when the later reading is numerically smaller.
func ClockDiffSeconds(from, to int) int {
	diff := to - from
	if diff < 0 {
		diff += SecondsPerDay
	}
	return diff
}

// AddMinutes advances a clock reading and folds the result back into a
// single day. days is the number of midnights crossed.
func AddMinutes(clock float64, elapsed float64) (wrapped float64, days int) {
	total := clock + elapsed
	days = int(math.Floor(total / MinutesPerDay))
	wrapped = total - float64(days)*MinutesPerDay
	return wrapped, days
}

// FormatClock renders minutes past midnight as zero-padded "HH:MM",
// truncating seconds.
func FormatClock(minutes float64) string {
	m := int(math.Floor(minutes)) % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
