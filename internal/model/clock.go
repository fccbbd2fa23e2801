package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds a ClockTime.
const MinutesPerDay = 24 * 60

// ClockTime is a time of day in minutes since midnight. It is formatted as
// HH:MM on the wire and stored as a postgres TIME column.
type ClockTime int

// NewClockTime builds a ClockTime from hours and minutes.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts HH:MM or HH:MM:SS. Seconds are discarded. 24:00 is
// accepted as the end of the day, the way postgres TIME stores it.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in clock time %q", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if len(parts) == 3 {
		// postgres may render fractional seconds
		sec := strings.SplitN(parts[2], ".", 2)[0]
		if v, err := strconv.Atoi(sec); err != nil || v < 0 || v > 59 || (h == 24 && v != 0) {
			return 0, fmt.Errorf("invalid second in clock time %q", s)
		}
	}

	return NewClockTime(h, m), nil
}

// MustParseClockTime panics on malformed input. Intended for tests and constants.
func MustParseClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockTimeOf extracts the time of day from t, truncated to the minute.
func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// Add returns c shifted by the given minutes. The result may exceed a day;
// callers compare it against segment bounds before formatting.
func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On anchors the clock time to the calendar day of date.
func (c ClockTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clock time must be a string: %w", err)
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the clock time as a TIME literal.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

// Scan reads TIME columns as returned by lib/pq.
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*c = parsed
	case time.Time:
		*c = ClockTimeOf(v)
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
	return nil
}
