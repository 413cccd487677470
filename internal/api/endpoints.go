package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ikkahin/hra/internal/domain"
)

type LoginRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type RegisterEmployeeRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type startBreakRequest struct {
	BreakType string `json:"breakType" validate:"required,oneof=TEA LUNCH"`
}

type MarkAbsenceRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Date       string `json:"date" validate:"required"`
}

// RegisterResult is what the server says about a new employee.
type RegisterResult struct {
	Message    string
	EmployeeID string
}

// Login checks credentials. It is sent without a bearer token and a 401
// here is a wrong password, not an expired session.
func (c *Client) Login(ctx context.Context, employeeID, password string) (*domain.LoginResult, error) {
	req := LoginRequest{EmployeeID: strings.TrimSpace(employeeID), Password: password}
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: req, anonymous: true})
	if err != nil {
		return nil, err
	}
	var res domain.LoginResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	return &res, nil
}

func (c *Client) RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (*RegisterResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register-employees", body: req})
	if err != nil {
		return nil, err
	}
	var res struct {
		Message    string                 `json:"message"`
		EmployeeID string                 `json:"employeeId"`
		Employee   *domain.EmployeeRecord `json:"employee"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding register response: %w", err)
	}
	out := &RegisterResult{Message: res.Message, EmployeeID: res.EmployeeID}
	if out.EmployeeID == "" && res.Employee != nil {
		out.EmployeeID = res.Employee.EmployeeID
	}
	return out, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]domain.EmployeeRecord, error) {
	data, err := c.do(ctx, call{method: http.MethodGet, path: "/auth/employees"})
	if err != nil {
		return nil, err
	}
	list, err := domain.DecodeEmployeeList(data)
	if err != nil {
		return nil, fmt.Errorf("decoding employees: %w", err)
	}
	return list, nil
}

func (c *Client) ListAllAttendance(ctx context.Context) ([]domain.AttendanceRecord, error) {
	data, err := c.do(ctx, call{method: http.MethodGet, path: "/attendance/all"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.AttendanceRecord](data, "attendance", "records")
}

func (c *Client) ListMyAttendance(ctx context.Context) ([]domain.AttendanceRecord, error) {
	data, err := c.do(ctx, call{method: http.MethodGet, path: "/attendance/my"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.AttendanceRecord](data, "attendance", "records")
}

func (c *Client) CheckIn(ctx context.Context) (*domain.CheckInResult, error) {
	var res domain.CheckInResult
	if err := c.post(ctx, "/attendance/check-in", struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CheckOut(ctx context.Context) (*domain.CheckOutResult, error) {
	var res domain.CheckOutResult
	if err := c.post(ctx, "/attendance/check-out", struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) StartBreak(ctx context.Context, kind domain.BreakType) (*domain.BreakStartResult, error) {
	req := startBreakRequest{BreakType: kind.Wire()}
	if err := check(req); err != nil {
		return nil, err
	}
	var res domain.BreakStartResult
	if err := c.post(ctx, "/attendance/break-start", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) EndBreak(ctx context.Context) (*domain.BreakEndResult, error) {
	var res domain.BreakEndResult
	if err := c.post(ctx, "/attendance/break-end", struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkMeetingAbsence records employeeID as absent from the meeting on date
// (YYYY-MM-DD).
func (c *Client) MarkMeetingAbsence(ctx context.Context, req MarkAbsenceRequest) (*domain.MissedMeetingRecord, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, call{method: http.MethodPost, path: "/meeting/mark-not-attended", body: req})
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Record *domain.MissedMeetingRecord `json:"record"`
		Data   *domain.MissedMeetingRecord `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding mark response: %w", err)
	}
	if rec := domain.CoalescePtr(wrapped.Record, wrapped.Data); rec != nil {
		return rec, nil
	}
	var rec domain.MissedMeetingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding mark response: %w", err)
	}
	return &rec, nil
}

func (c *Client) ListMyMissedMeetings(ctx context.Context) ([]domain.MissedMeetingRecord, error) {
	data, err := c.do(ctx, call{method: http.MethodGet, path: "/meeting/my-missed"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.MissedMeetingRecord](data, "missedMeetings", "meetings", "records")
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, call{method: http.MethodPost, path: path, body: body})
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// decodeList accepts a bare array or an object holding the array under one
// of keys.
func decodeList[T any](data []byte, keys ...string) ([]T, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", k, err)
		}
		return list, nil
	}
	return nil, nil
}
