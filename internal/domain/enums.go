package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes the server's role spelling ("ADMIN", "Employee", ...)
// to the lower-case form used for every comparison in the client.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type BreakType string

const (
	BreakTea   BreakType = "tea"
	BreakLunch BreakType = "lunch"
)

// ParseBreakType accepts any casing of "tea" or "lunch".
func ParseBreakType(s string) (BreakType, error) {
	b := BreakType(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BreakTea, BreakLunch:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBreakType, s)
}

// Wire returns the upper-case spelling the attendance API expects.
func (b BreakType) Wire() string {
	return strings.ToUpper(string(b))
}

// Title returns "Tea" or "Lunch".
func (b BreakType) Title() string {
	if b == "" {
		return ""
	}
	s := string(b)
	return strings.ToUpper(s[:1]) + s[1:]
}

// DayStatus is an employee's attendance state for the current day.
type DayStatus string

const (
	StatusNotCheckedIn DayStatus = "not-checked-in"
	StatusWorking      DayStatus = "working"
	StatusTeaBreak     DayStatus = "tea-break"
	StatusLunchBreak   DayStatus = "lunch-break"
	StatusCheckedOut   DayStatus = "checked-out"
)

func (s DayStatus) OnBreak() bool {
	return s == StatusTeaBreak || s == StatusLunchBreak
}

func (s DayStatus) Label() string {
	switch s {
	case StatusWorking:
		return "Working"
	case StatusTeaBreak:
		return "Tea Break"
	case StatusLunchBreak:
		return "Lunch Break"
	case StatusCheckedOut:
		return "Day Complete"
	default:
		return "Not Checked In"
	}
}

// BreakStatus maps a break type onto the status shown while it is open.
func BreakStatus(b BreakType) DayStatus {
	if b == BreakLunch {
		return StatusLunchBreak
	}
	return StatusTeaBreak
}
