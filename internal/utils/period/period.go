// Package period provides calendar boundary math for timeline aggregation.
// Weeks start on Monday; months end on their last calendar day.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the step of a timeline: one point per day, week or month.
type Granularity string

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

// Parse normalizes a user supplied granularity string.
func Parse(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Daily, nil
	case "week", "weekly":
		return Weekly, nil
	case "month", "monthly":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Truncate drops the time-of-day portion, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// End returns the end of the period containing t: t itself for days, the
// following Sunday for weeks, the last calendar day of the month for months.
func End(t time.Time, g Granularity) time.Time {
	t = Truncate(t)
	switch g {
	case Weekly:
		// Monday-start weeks end on Sunday.
		offset := (7 - int(t.Weekday())) % 7
		return t.AddDate(0, 0, offset)
	case Monthly:
		firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1)
	default:
		return t
	}
}

// Ends lists every period end within [from, to] inclusive. If to is not
// itself a boundary it is appended as a partial last point; from only anchors
// the range start, so a partial first period is simply represented by the
// first boundary at or after from.
func Ends(from, to time.Time, g Granularity) []time.Time {
	from, to = Truncate(from), Truncate(to)
	if to.Before(from) {
		return nil
	}
	var ends []time.Time
	cur := End(from, g)
	for !cur.After(to) {
		ends = append(ends, cur)
		switch g {
		case Weekly:
			cur = cur.AddDate(0, 0, 7)
		case Monthly:
			cur = End(cur.AddDate(0, 0, 1), Monthly)
		default:
			cur = cur.AddDate(0, 0, 1)
		}
	}
	if len(ends) == 0 || ends[len(ends)-1].Before(to) {
		ends = append(ends, to)
	}
	return ends
}
