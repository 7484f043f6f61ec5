package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout wire and storage format of a calendar date
	DateLayout = "2006-01-02"
	// SecondsPerDay number of seconds in a calendar day
	SecondsPerDay = 24 * 60 * 60
	// EndOfDay last representable second of a day
	EndOfDay TimeOfDay = SecondsPerDay - 1
)

// Date calendar date without time zone, normalized to midnight UTC
type Date struct {
	t time.Time
}

// NewDate builds a date from its parts; out of range parts are normalized
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, NewFieldError("date", fmt.Sprintf("invalid date %q", s))
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool { return d.t.IsZero() }

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Time returns midnight of the date in loc
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := d.t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// AddDays shifts the date by n days
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of the date's month
func (d Date) FirstOfMonth() Date {
	y, m, _ := d.t.Date()
	return NewDate(y, m, 1)
}

// Before reports whether d is earlier than o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is later than o
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether d and o are the same day
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// DaysUntil number of days from d to o (negative when o is earlier)
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

// Scan implements sql.Scanner; drivers hand back time.Time, string or []byte
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.parseStored(v)
	case []byte:
		return d.parseStored(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) parseStored(s string) error {
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// GormDataType column type used by gorm migrations
func (Date) GormDataType() string { return "date" }

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// MarshalJSON encodes as "YYYY-MM-DD", the zero date as null
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD"; an empty string is the zero date.
// Malformed input is a field error on "day".
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewFieldError("day", "date must be a YYYY-MM-DD string")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return NewFieldError("day", fmt.Sprintf("invalid date %q", s))
	}
	*d = parsed
	return nil
}

// TimeOfDay wall clock time with second resolution, stored as seconds since midnight
type TimeOfDay int

// NewTimeOfDay builds a time of day from its parts
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf returns the wall clock time of t truncated to the second
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// Valid reports whether the value lies within a single day
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < SecondsPerDay
}

// String formats as HH:MM:SS
func (t TimeOfDay) String() string {
	sec := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// On combines the time of day with a date in loc
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return d.Time(loc).Add(time.Duration(t) * time.Second)
}

// Scan implements sql.Scanner; MySQL returns TIME as []byte, SQLite as string or time.Time
func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	case string:
		return t.parseStored(v)
	case []byte:
		return t.parseStored(string(v))
	case int64:
		*t = TimeOfDay(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", value)
	}
}

func (t *TimeOfDay) parseStored(s string) error {
	// sqlite may store a full timestamp; keep the clock part
	if idx := strings.LastIndexAny(s, " T"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.IndexAny(s, ".+Z"); idx >= 0 {
		s = s[:idx]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// GormDataType column type used by gorm migrations
func (TimeOfDay) GormDataType() string { return "time" }

// Value implements driver.Valuer
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// MarshalJSON encodes as "HH:MM:SS"
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS"
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Duration time span rendered as whole seconds plus an H:MM:SS label
type Duration time.Duration

// DurationOfSeconds converts stored seconds
func DurationOfSeconds(sec int64) Duration {
	return Duration(time.Duration(sec) * time.Second)
}

// Seconds whole seconds in the span
func (d Duration) Seconds() int64 {
	return int64(time.Duration(d) / time.Second)
}

// Hours fractional hours rounded to two decimals
func (d Duration) Hours() float64 {
	h := time.Duration(d).Hours()
	return float64(int64(h*100+0.5)) / 100
}

// String formats as H:MM:SS, hours are not capped at 24
func (d Duration) String() string {
	sec := d.Seconds()
	sign := ""
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, sec/3600, (sec%3600)/60, sec%60)
}

type durationJSON struct {
	Seconds int64  `json:"seconds"`
	Display string `json:"display"`
}

// MarshalJSON encodes as {"seconds": N, "display": "H:MM:SS"}
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(durationJSON{Seconds: d.Seconds(), Display: d.String()})
}

// UnmarshalJSON reads the seconds field; display is ignored
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v durationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = DurationOfSeconds(v.Seconds)
	return nil
}
