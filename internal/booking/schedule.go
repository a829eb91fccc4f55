package booking

import (
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	// Gaps strictly inside this open interval (in minutes) are considered
	// an impractical turnaround between two bookings on the same day.
	// Exactly 15 or exactly 120 minutes are acceptable.
	minGapMinutes = 15
	maxGapMinutes = 120
)

// dateOnly strips the time portion from an ISO timestamp, leaving the
// calendar date.
func dateOnly(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// normalizeInterval composes a booking's calendar date with its wall-clock
// start and end times into two comparable instants. All interval parsing
// lives here so malformed input is handled once and the same way by both
// the conflict and gap checks: ok is false and the booking drops out of
// comparison.
func normalizeInterval(b Booking) (start, end time.Time, ok bool) {
	day, err := time.Parse(dateLayout, dateOnly(b.Date))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	st, err := time.Parse(timeLayout, b.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	et, err := time.Parse(timeLayout, b.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = day.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute + time.Duration(st.Second())*time.Second)
	end = day.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute + time.Duration(et.Second())*time.Second)
	return start, end, true
}

// inScope reports whether another booking takes part in rule checks
// against the candidate: not the candidate itself, not cancelled, and on
// the same calendar day.
func inScope(candidate, other Booking) bool {
	return other.ID != candidate.ID &&
		other.Status != StatusCancelled &&
		dateOnly(other.Date) == dateOnly(candidate.Date)
}

// HasConflict reports whether the candidate's time interval overlaps any
// other same-day, non-cancelled booking in the collection. Intervals are
// half-open: bookings that exactly touch (one ends when the other starts)
// do not conflict.
func HasConflict(candidate Booking, collection []Booking) bool {
	cStart, cEnd, ok := normalizeInterval(candidate)
	if !ok {
		return false
	}
	for _, other := range collection {
		if !inScope(candidate, other) {
			continue
		}
		oStart, oEnd, ok := normalizeInterval(other)
		if !ok {
			continue
		}
		if cStart.Before(oEnd) && cEnd.After(oStart) {
			return true
		}
	}
	return false
}

// HasGapViolation reports whether any same-day, non-cancelled booking sits
// at an awkward distance from the candidate: a gap large enough not to be
// genuine adjacency but too short to be a practical turnaround. The
// distance between the candidate's end and the other's start (and the
// mirror pair) is taken as an absolute value, so the rule catches
// too-soon-after and too-soon-before neighbours alike.
func HasGapViolation(candidate Booking, collection []Booking) bool {
	cStart, cEnd, ok := normalizeInterval(candidate)
	if !ok {
		return false
	}
	for _, other := range collection {
		if !inScope(candidate, other) {
			continue
		}
		oStart, oEnd, ok := normalizeInterval(other)
		if !ok {
			continue
		}
		afterGap := absMinutes(cEnd, oStart)
		beforeGap := absMinutes(oEnd, cStart)
		if (afterGap > minGapMinutes && afterGap < maxGapMinutes) ||
			(beforeGap > minGapMinutes && beforeGap < maxGapMinutes) {
			return true
		}
	}
	return false
}

func absMinutes(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d / time.Minute)
}
