package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DayLayout is the wire and storage format of every business date.
const DayLayout = "2006-01-02"

// Day is a calendar date stored in a Postgres DATE column and exchanged as YYYY-MM-DD.
type Day string

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Day(t.Format(DayLayout)), nil
}

// Today returns the current date in loc.
func Today(loc *time.Location) Day {
	return Day(time.Now().In(loc).Format(DayLayout))
}

// Prev returns the previous calendar day. An unparsable Day is returned unchanged.
func (d Day) Prev() Day {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, -1).Format(DayLayout))
}

func (d Day) String() string { return string(d) }

func (d Day) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Day(v.Format(DayLayout))
	case string:
		*d = Day(truncDay(v))
	case []byte:
		*d = Day(truncDay(string(v)))
	default:
		return fmt.Errorf("model.Day: cannot scan %T", src)
	}
	return nil
}

func truncDay(s string) string {
	if len(s) > len(DayLayout) {
		return s[:len(DayLayout)]
	}
	return s
}
