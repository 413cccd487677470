package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"
	"github.com/ikkahin/hra/internal/domain"
)

var fieldValidator = validator.New()

// dateInput returns a huh.Input for a date field with YYYY-MM-DD validation.
// Blank is accepted when optional is set.
func dateInput(title string, optional bool, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2026-03-10").
		Value(value).
		Validate(func(s string) error {
			if optional && strings.TrimSpace(s) == "" {
				return nil
			}
			return validateDate(s)
		})
}

// requiredInput returns a huh.Input that rejects blank values.
func requiredInput(title, placeholder string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", title)
			}
			return nil
		})
}

// passwordInput masks what is typed.
func passwordInput(title string, value *string) *huh.Input {
	return requiredInput(title, "", value).EchoMode(huh.EchoModePassword)
}

func validateDate(s string) error {
	if _, err := domain.ParseDate(s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validateEmail catches malformed addresses before the round trip so the form
// can show them inline. The server stays the authority on format.
func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if err := fieldValidator.Var(s, "email"); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}
