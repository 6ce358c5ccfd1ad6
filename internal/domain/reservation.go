package domain

import (
	"sort"
	"time"
)

// SiteID identifies one bookable plot, e.g. "A3". The first byte is the
// site's type/category.
type SiteID string

// SiteType is a single-letter site category ("A".."G" in the reference
// catalog). Prices are maintained per type, not per site.
type SiteType string

// Type derives the category from the identifier's first character.
func (s SiteID) Type() SiteType {
	if s == "" {
		return ""
	}
	return SiteType(s[0:1])
}

// Reservation is one occupancy record for a site. Start doubles as the
// document key; End is inclusive; DurationDays is stored redundantly because
// the legacy document layout carries it.
type Reservation struct {
	Name         string    `json:"name"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"duration"`
}

// NewReservation builds a reservation from a validated range.
func NewReservation(name string, r DateRange) Reservation {
	return Reservation{
		Name:         name,
		Start:        r.Start,
		End:          r.End,
		DurationDays: r.DurationDays(),
	}
}

// Range returns the reservation's date interval.
func (r Reservation) Range() DateRange {
	return DateRange{Start: r.Start, End: r.End}
}

// Key is the ISO start date the reservation is stored under.
func (r Reservation) Key() string {
	return r.Start.Format(DateLayout)
}

// ReservationSet is a site's reservations keyed by parsed start date.
// Keys are real dates, not raw strings, so ordering is chronological and
// never falls into lexical-sort traps.
type ReservationSet map[time.Time]Reservation

// Get looks up a reservation by its ISO start-date key.
func (s ReservationSet) Get(startKey string) (Reservation, bool) {
	d, err := ParseDate(startKey)
	if err != nil {
		return Reservation{}, false
	}
	r, ok := s[d]
	return r, ok
}

// Put inserts or replaces the reservation at its start date.
func (s ReservationSet) Put(r Reservation) {
	s[r.Start] = r
}

// Ordered returns the reservations sorted by start date.
func (s ReservationSet) Ordered() []Reservation {
	out := make([]Reservation, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
