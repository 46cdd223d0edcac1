// Package timeutil provides wall-clock interval arithmetic for schedule
// periods, including intervals that wrap past midnight. Times are handled
// as minutes since midnight; intervals are half-open, so a probe equal to
// the start is inside and a probe equal to the end is outside.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of one calendar day in minutes.
const MinutesPerDay = 24 * 60

// ParseClock parses a wall-clock value in "HH:MM:SS" or "HH:MM" form and
// returns minutes since midnight. Seconds are accepted but truncated to
// minute precision, which is the granularity periods are authored at.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
		fields[i] = v
	}
	h, m, sec := fields[0], fields[1], fields[2]
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM:SS".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// Wraps reports whether the interval [start, end) crosses midnight.
// Equal endpoints denote an empty interval, not a full day.
func Wraps(start, end int) bool {
	return end < start
}

// Contains reports whether probe t lies inside [start, end), accounting
// for wrap. An empty interval (start == end) contains nothing.
func Contains(start, end, t int) bool {
	if start == end {
		return false
	}
	if Wraps(start, end) {
		return t >= start || t < end
	}
	return t >= start && t < end
}

// Duration returns the length of [start, end) in minutes, accounting for
// wrap. An empty interval has zero duration.
func Duration(start, end int) int {
	if start == end {
		return 0
	}
	if Wraps(start, end) {
		return MinutesPerDay - start + end
	}
	return end - start
}

// segments splits an interval into non-wrapping pieces on the [0, 1440)
// clock face.
func segments(start, end int) [][2]int {
	if start == end {
		return nil
	}
	if Wraps(start, end) {
		return [][2]int{{start, MinutesPerDay}, {0, end}}
	}
	return [][2]int{{start, end}}
}

// OverlapMinutes returns how many minutes the two intervals share,
// accounting for wrap on either side.
func OverlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	total := 0
	for _, a := range segments(aStart, aEnd) {
		for _, b := range segments(bStart, bEnd) {
			lo := a[0]
			if b[0] > lo {
				lo = b[0]
			}
			hi := a[1]
			if b[1] < hi {
				hi = b[1]
			}
			if hi > lo {
				total += hi - lo
			}
		}
	}
	return total
}

// Overlaps reports whether the two intervals share any time at all.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return OverlapMinutes(aStart, aEnd, bStart, bEnd) > 0
}

// DateOnly strips the time-of-day portion of t, pinning the result to UTC
// so calendar arithmetic is immune to zone offsets.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Sunday that begins the calendar week containing t.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// DaysBetween returns the whole number of calendar days from a to b;
// negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
