// models/date.go
package models

import (
	"fmt"
	"time"
)

// DateLayout is the text form of a RefreshDate ("2021-01-10").
const DateLayout = "2006-01-02"

// RefreshDate is a calendar date with no time component: "data as of this day".
// The zero value means "unknown".
type RefreshDate struct {
	t time.Time
}

// NewRefreshDate builds a date in UTC.
func NewRefreshDate(year int, month time.Month, day int) RefreshDate {
	return RefreshDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping t's own calendar day.
func DateOf(t time.Time) RefreshDate {
	if t.IsZero() {
		return RefreshDate{}
	}
	return NewRefreshDate(t.Year(), t.Month(), t.Day())
}

// ParseRefreshDate parses "2006-01-02".
func ParseRefreshDate(s string) (RefreshDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return RefreshDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d RefreshDate) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the date.
func (d RefreshDate) Time() time.Time { return d.t }

func (d RefreshDate) After(o RefreshDate) bool  { return d.t.After(o.t) }
func (d RefreshDate) Before(o RefreshDate) bool { return d.t.Before(o.t) }
func (d RefreshDate) Equal(o RefreshDate) bool  { return d.t.Equal(o.t) }

func (d RefreshDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d RefreshDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *RefreshDate) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = RefreshDate{}
		return nil
	}
	parsed, err := ParseRefreshDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
