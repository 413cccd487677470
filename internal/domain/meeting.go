package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MissedMeetingRecord marks one employee as absent from the meeting on one
// date.
type MissedMeetingRecord struct {
	ID           string     `json:"id,omitempty"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	MeetingDate  *time.Time `json:"meetingDate"`
	MarkedAt     *time.Time `json:"markedAt,omitempty"`
}

type wireMissedMeeting struct {
	ID           string  `json:"id"`
	MongoID      string  `json:"_id"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeIDSn string  `json:"employee_id"`
	EmployeeName string  `json:"employeeName"`
	MeetingDate  *string `json:"meetingDate"`
	Date         *string `json:"date"`
	MarkedAt     *string `json:"markedAt"`
}

func (m *MissedMeetingRecord) UnmarshalJSON(data []byte) error {
	var w wireMissedMeeting
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var err error
	m.ID = CoalesceStr(w.ID, w.MongoID)
	m.EmployeeID = CoalesceStr(w.EmployeeID, w.EmployeeIDSn)
	m.EmployeeName = w.EmployeeName
	if m.MeetingDate, err = ParseWireTime(StrFromPtr(CoalescePtr(w.MeetingDate, w.Date))); err != nil {
		return fmt.Errorf("meeting date: %w", err)
	}
	if m.MarkedAt, err = ParseWireTime(StrFromPtr(w.MarkedAt)); err != nil {
		return fmt.Errorf("marked at: %w", err)
	}
	return nil
}
