package domain

import "time"

// Session is the authenticated identity/role/credential triple that survives
// restarts. ExpiresAt is advisory: it is read from the token when the token
// carries an exp claim, but the server's 401 stays authoritative.
type Session struct {
	EmployeeID string     `json:"employeeId"`
	Role       Role       `json:"role"`
	Token      string     `json:"token"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func (s Session) IsZero() bool {
	return s.EmployeeID == "" && s.Token == ""
}

// Valid reports whether the session has everything a request needs.
func (s Session) Valid() bool {
	return s.EmployeeID != "" && s.Token != "" && s.Role.Valid()
}

// ExpiredAt reports whether the advisory expiry has passed at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// LoginResult is the server's answer to a successful credential check.
type LoginResult struct {
	Message    string `json:"message"`
	Token      string `json:"token"`
	Role       string `json:"role"`
	EmployeeID string `json:"employeeId"`
}
