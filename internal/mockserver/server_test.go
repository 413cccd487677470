package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestServer(t *testing.T) (*Server, *fakeNow) {
	t.Helper()
	loc, err := domain.LoadZone(domain.DefaultZone)
	require.NoError(t, err)
	clock := &fakeNow{t: time.Date(2026, 3, 10, 9, 0, 0, 0, loc)}
	srv := New(Options{Clock: domain.NewClock(loc).WithNow(clock.now)})
	return srv, clock
}

func do(t *testing.T, srv *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	} else if rec.Body.Len() > 0 {
		out["list"] = json.RawMessage(rec.Body.Bytes())
	}
	return rec.Code, out
}

func login(t *testing.T, srv *Server, id, password string) string {
	t.Helper()
	code, body := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"employeeId": id, "password": password})
	require.Equal(t, http.StatusOK, code, body)
	return body["token"].(string)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"employeeId": "emp001", "password": "emp123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "EMPLOYEE", body["role"])
	assert.Equal(t, "EMP001", body["employeeId"])
	assert.NotEmpty(t, body["token"])

	code, body = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"employeeId": "EMP001", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["message"])

	code, _ = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"employeeId": "EMP001"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/attendance/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["message"])

	code, _ = do(t, srv, http.MethodGet, "/api/attendance/my", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := login(t, srv, "EMP001", "emp123")
	code, _ = do(t, srv, http.MethodGet, "/api/attendance/all", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	srv.RevokeTokens()
	code, _ = do(t, srv, http.MethodGet, "/api/attendance/my", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTokenExpiry(t *testing.T) {
	srv, clock := newTestServer(t)
	token := login(t, srv, "EMP001", "emp123")
	clock.advance(13 * time.Hour)
	code, _ := do(t, srv, http.MethodGet, "/api/attendance/my", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAttendanceDay(t *testing.T) {
	srv, clock := newTestServer(t)
	token := login(t, srv, "EMP001", "emp123")

	code, body := do(t, srv, http.MethodPost, "/api/attendance/check-out", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errNotCheckedIn.Error(), body["message"])

	code, body = do(t, srv, http.MethodPost, "/api/attendance/check-in", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["checkInTime"])

	code, body = do(t, srv, http.MethodPost, "/api/attendance/check-in", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errAlreadyCheckedIn.Error(), body["message"])

	clock.advance(2 * time.Hour)
	code, body = do(t, srv, http.MethodPost, "/api/attendance/break-start", token, map[string]string{"breakType": "LUNCH"})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 45, body["allowedDurationMinutes"])

	code, body = do(t, srv, http.MethodPost, "/api/attendance/check-out", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errOnBreak.Error(), body["message"])

	clock.advance(30 * time.Minute)
	code, _ = do(t, srv, http.MethodPost, "/api/attendance/break-end", token, nil)
	require.Equal(t, http.StatusOK, code)

	clock.advance(90 * time.Minute)
	code, body = do(t, srv, http.MethodPost, "/api/attendance/check-out", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3h 30m", body["workingHours"])

	code, body = do(t, srv, http.MethodGet, "/api/attendance/my", token, nil)
	require.Equal(t, http.StatusOK, code)
	var records []domain.AttendanceRecord
	require.NoError(t, json.Unmarshal(body["list"].(json.RawMessage), &records))
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "EMP001", r.EmployeeID)
	assert.Equal(t, "Complete", r.Label())
	require.Len(t, r.Breaks, 1)
	assert.Equal(t, domain.BreakLunch, r.Breaks[0].Type)
	assert.False(t, r.Breaks[0].Ongoing())
	assert.Equal(t, domain.StatusCheckedOut, domain.DeriveStatus(&r))
}

func TestBreakValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "EMP002", "emp456")

	code, _ := do(t, srv, http.MethodPost, "/api/attendance/break-start", token, map[string]string{"breakType": "NAP"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := do(t, srv, http.MethodPost, "/api/attendance/break-start", token, map[string]string{"breakType": "TEA"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errNotCheckedIn.Error(), body["message"])

	code, body = do(t, srv, http.MethodPost, "/api/attendance/break-end", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errNoOpenBreak.Error(), body["message"])

	do(t, srv, http.MethodPost, "/api/attendance/check-in", token, nil)
	code, _ = do(t, srv, http.MethodPost, "/api/attendance/break-start", token, map[string]string{"breakType": "tea"})
	require.Equal(t, http.StatusOK, code)
	code, body = do(t, srv, http.MethodPost, "/api/attendance/break-start", token, map[string]string{"breakType": "LUNCH"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errBreakOpen.Error(), body["message"])
}

func TestAdminEmployees(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "ADMIN001", "admin123")

	code, body := do(t, srv, http.MethodPost, "/api/auth/register-employees", token, map[string]string{
		"name": "Meera Iyer", "email": "meera@hra.test", "phone": "9000000004", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code)
	emp := body["employee"].(map[string]any)
	assert.Equal(t, "EMP003", emp["employee_id"])

	code, _ = do(t, srv, http.MethodPost, "/api/auth/register-employees", token, map[string]string{
		"name": "Dup", "email": "MEERA@hra.test", "phone": "1", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, srv, http.MethodPost, "/api/auth/register-employees", token, map[string]string{
		"name": "Bad", "email": "not-an-email", "phone": "1", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, srv, http.MethodGet, "/api/auth/employees", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["employees"], 3)

	login(t, srv, "EMP003", "secret1")
}

func TestMeetingAbsence(t *testing.T) {
	srv, _ := newTestServer(t)
	admin := login(t, srv, "ADMIN001", "admin123")

	code, body := do(t, srv, http.MethodPost, "/api/meeting/mark-not-attended", admin, map[string]string{"employeeId": "EMP001", "date": "2026-03-09"})
	require.Equal(t, http.StatusCreated, code)
	rec := body["record"].(map[string]any)
	assert.Equal(t, "EMP001", rec["employeeId"])
	assert.Equal(t, "2026-03-09", rec["date"])

	code, _ = do(t, srv, http.MethodPost, "/api/meeting/mark-not-attended", admin, map[string]string{"employeeId": "EMP001", "date": "2026-03-09"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = do(t, srv, http.MethodPost, "/api/meeting/mark-not-attended", admin, map[string]string{"employeeId": "EMP999", "date": "2026-03-09"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, srv, http.MethodPost, "/api/meeting/mark-not-attended", admin, map[string]string{"employeeId": "EMP001", "date": "09/03/2026"})
	assert.Equal(t, http.StatusBadRequest, code)

	emp := login(t, srv, "EMP001", "emp123")
	code, body = do(t, srv, http.MethodGet, "/api/meeting/my-missed", emp, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["missedMeetings"], 1)

	other := login(t, srv, "EMP002", "emp456")
	_, body = do(t, srv, http.MethodGet, "/api/meeting/my-missed", other, nil)
	assert.Len(t, body["missedMeetings"], 0)
}

func TestAllAttendance_Empty(t *testing.T) {
	srv, _ := newTestServer(t)
	admin := login(t, srv, "ADMIN001", "admin123")
	code, body := do(t, srv, http.MethodGet, "/api/attendance/all", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(body["list"].(json.RawMessage)))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSocketRejectsBadVersion(t *testing.T) {
	srv, _ := newTestServer(t)
	code, _ := do(t, srv, http.MethodGet, "/socket.io/?EIO=3&transport=polling", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, srv, http.MethodGet, "/socket.io/?EIO=4&transport=smoke", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, srv, http.MethodGet, "/socket.io/?EIO=4&transport=polling&sid=missing", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
