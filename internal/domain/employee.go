package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type EmployeeRecord struct {
	EmployeeID string     `json:"employeeId"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Role       string     `json:"role,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

type wireEmployee struct {
	EmployeeIDSn string  `json:"employee_id"`
	EmployeeID   string  `json:"employeeId"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Role         string  `json:"role"`
	CreatedAt    *string `json:"createdAt"`
	CreatedAtSn  *string `json:"created_at"`
}

func (e *EmployeeRecord) UnmarshalJSON(data []byte) error {
	var w wireEmployee
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.EmployeeID = CoalesceStr(w.EmployeeIDSn, w.EmployeeID, w.ID)
	e.Name = w.Name
	e.Email = w.Email
	e.Phone = w.Phone
	e.Role = w.Role
	created, err := ParseWireTime(StrFromPtr(CoalescePtr(w.CreatedAt, w.CreatedAtSn)))
	if err != nil {
		return fmt.Errorf("employee created: %w", err)
	}
	e.CreatedAt = created
	return nil
}

// DecodeEmployeeList accepts either a bare array or {"employees": [...]}.
func DecodeEmployeeList(data []byte) ([]EmployeeRecord, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []EmployeeRecord
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Employees []EmployeeRecord `json:"employees"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Employees, nil
}

// NextEmployeeID previews the identifier the server is expected to assign
// to the next registration. It is a display hint only.
func NextEmployeeID(count int) string {
	return fmt.Sprintf("EMP%03d", count+1)
}

// FilterEmployees keeps employees whose name, ID or email contains search,
// case-insensitively.
func FilterEmployees(list []EmployeeRecord, search string) []EmployeeRecord {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return list
	}
	var out []EmployeeRecord
	for _, e := range list {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.EmployeeID), q) ||
			strings.Contains(strings.ToLower(e.Email), q) {
			out = append(out, e)
		}
	}
	return out
}
