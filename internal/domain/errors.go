package domain

import "errors"

var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownBreakType = errors.New("unknown break type")
	ErrInvalidDate      = errors.New("invalid date")
)
