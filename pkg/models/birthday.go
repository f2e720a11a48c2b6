package models

import (
	"encoding/json"
	"time"
)

// BirthdayLayout is the wire and display format for birthdays
const BirthdayLayout = "02.01.2006"

// DefaultUpcomingWindow is how many days ahead the birthday report looks
const DefaultUpcomingWindow = 7

// Birthday is a calendar date in DD.MM.YYYY form
type Birthday struct {
	t time.Time
}

// ParseBirthday validates and parses a DD.MM.YYYY date string
func ParseBirthday(value string) (Birthday, error) {
	t, err := time.Parse(BirthdayLayout, value)
	if err != nil {
		return Birthday{}, ErrInvalidBirthday
	}
	return Birthday{t: t}, nil
}

// MustBirthday parses a birthday and panics on invalid input. Test helper.
func MustBirthday(value string) Birthday {
	b, err := ParseBirthday(value)
	if err != nil {
		panic(err)
	}
	return b
}

// String formats the birthday as DD.MM.YYYY
func (b Birthday) String() string {
	return b.t.Format(BirthdayLayout)
}

// Time returns the underlying date
func (b Birthday) Time() time.Time {
	return b.t
}

// IsZero reports whether the birthday is unset
func (b Birthday) IsZero() bool {
	return b.t.IsZero()
}

// MarshalJSON encodes the birthday as a DD.MM.YYYY string
func (b Birthday) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes and validates a DD.MM.YYYY string
func (b *Birthday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidBirthday
	}
	parsed, err := ParseBirthday(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Upcoming is one entry in the upcoming birthday report
type Upcoming struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

// NextCongratulation projects the birthday into the year of `today` (or the
// next year when it has already passed) and returns the congratulation date
// with weekend dates moved to the following Monday. The second return value
// reports whether the date falls within `window` days of today, today
// inclusive.
//
// A February 29 birthday in a non-leap year normalizes to March 1, matching
// time.Date semantics.
func (b Birthday) NextCongratulation(today time.Time, window int) (time.Time, bool) {
	today = truncateToDay(today)

	next := time.Date(today.Year(), b.t.Month(), b.t.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, b.t.Month(), b.t.Day(), 0, 0, 0, 0, today.Location())
	}

	delta := daysBetween(today, next)
	if delta < 0 || delta > window {
		return time.Time{}, false
	}

	// Shift weekend congratulations to Monday
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}

	return next, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. Both dates are re-anchored
// at UTC midnight so that DST transitions, which make some local days 23 or
// 25 hours long, cannot skew the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
