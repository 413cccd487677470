package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DateLayout    = "2006-01-02"
	DefaultZone   = "Asia/Kolkata"
	displayLayout = "03:04 PM"
)

var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseWireTime parses the timestamp spellings the attendance API is known to
// return. An empty string yields nil. Values without a zone are read as UTC.
func ParseWireTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	for _, layout := range wireLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (string, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return s, nil
}

// LoadZone resolves an IANA zone name, defaulting to Asia/Kolkata.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Clock answers every "is this today" question in one canonical zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: time.Now}
}

// IsZero reports an unconfigured clock.
func (c Clock) IsZero() bool {
	return c.loc == nil && c.now == nil
}

// WithNow returns a copy of c that reads the current time from now.
func (c Clock) WithNow(now func() time.Time) Clock {
	c.now = now
	return c
}

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.Location())
	}
	return c.now().In(c.Location())
}

// Today returns the current calendar date as YYYY-MM-DD.
func (c Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// DateOf returns t's calendar date in the clock's zone.
func (c Clock) DateOf(t time.Time) string {
	return t.In(c.Location()).Format(DateLayout)
}

func (c Clock) IsToday(t *time.Time) bool {
	return t != nil && c.DateOf(*t) == c.Today()
}

// RecordDate is the date a record belongs to. Records without a date fall
// back to their check-in time.
func (c Clock) RecordDate(r AttendanceRecord) string {
	switch {
	case r.Date != nil:
		return c.DateOf(*r.Date)
	case r.CheckInTime != nil:
		return c.DateOf(*r.CheckInTime)
	}
	return ""
}

// FindToday returns the first of records dated today, or nil.
func (c Clock) FindToday(records []AttendanceRecord) *AttendanceRecord {
	today := c.Today()
	for i := range records {
		if c.RecordDate(records[i]) == today {
			return &records[i]
		}
	}
	return nil
}

func (c Clock) TodayRecords(records []AttendanceRecord) []AttendanceRecord {
	today := c.Today()
	var out []AttendanceRecord
	for _, r := range records {
		if c.RecordDate(r) == today {
			out = append(out, r)
		}
	}
	return out
}

// FormatTime renders t as "hh:mm AM" in the clock's zone, or "--" for nil.
func (c Clock) FormatTime(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.In(c.Location()).Format(displayLayout)
}

// FormatDate renders t's calendar date, or "--" for nil.
func (c Clock) FormatDate(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return c.DateOf(*t)
}
