package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used everywhere in the system,
// including the persisted document keys.
const DateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive [Start, End] pair of calendar dates.
// Both bounds are midnight-UTC; time-of-day never participates in comparisons.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDate parses a single ISO calendar date ("YYYY-MM-DD").
func ParseDate(text string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRange, text)
	}
	return d, nil
}

// ParseDateRange parses start/end ISO dates and validates their ordering.
// A range with end <= start (zero or negative duration) is rejected.
func ParseDateRange(startText, endText string) (DateRange, error) {
	start, err := ParseDate(startText)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(endText)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(start, end)
}

// NewDateRange validates that end is strictly after start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if !end.After(start) {
		return DateRange{}, fmt.Errorf("%w: end %s must be after start %s",
			ErrInvalidRange, end.Format(DateLayout), start.Format(DateLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// Overlaps reports whether the closed intervals [r.Start, r.End] and
// [other.Start, other.End] intersect. Shared endpoints count as an overlap:
// a stay ending on a given day conflicts with one starting that same day.
// The no-same-day-turnover policy is intentional and must not change without
// a corresponding product decision.
func (r DateRange) Overlaps(other DateRange) bool {
	return !(r.End.Before(other.Start) || other.End.Before(r.Start))
}

// ContainsPoint reports whether date falls inside the closed interval.
func (r DateRange) ContainsPoint(date time.Time) bool {
	d := truncateToDay(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// DurationDays is End - Start in whole days, >= 1 for any valid range.
func (r DateRange) DurationDays() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// StartKey is the document key under which a reservation for this range is
// stored: the ISO start date.
func (r DateRange) StartKey() string {
	return r.Start.Format(DateLayout)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
