package repository

import (
	"database/sql"
	"strings"
	"time"
)

// storedTimeLayout matches the strftime default used in the schema.
const storedTimeLayout = "2006-01-02T15:04:05.000Z"

// parseNullableTime parses a stored timestamp, returning nil when the value
// is NULL, empty, or unparsable.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	for _, layout := range []string{storedTimeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s.String); err == nil {
			return &t
		}
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(storedTimeLayout)
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
