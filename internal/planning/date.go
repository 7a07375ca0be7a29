package planning

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day key in YYYY-MM-DD form. It carries no time or zone,
// and two dates are the same day iff the strings are equal.
type Date string

// DateOf returns the date of t, in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate normalizes a backend date into a Date. Both "2024-05-01" and
// "2024-05-01T00:00:00.000Z" give "2024-05-01": the written day is kept as is,
// no zone conversion happens.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "T "); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "", errors.New("empty date")
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", fmt.Errorf("parse date [%s]: %w", raw, err)
	}
	return Date(raw), nil
}

func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return string(d)
}

func (d Date) IsZero() bool {
	return d == ""
}

// Time returns midnight UTC of the date.
func (d Date) Time() (time.Time, error) {
	return time.Parse(dateLayout, string(d))
}

// AddDays returns the date n days later (earlier for negative n).
// An invalid date stays as it is.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	t, err := d.Time()
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}
