package cli

import (
	"context"
	"testing"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Routing
// =============================================================================

func TestTUI_SignedOutLandsOnLogin(t *testing.T) {
	h := newHarness(t)
	d := newTestDriver(t, h, guard.PathAdminEmployees)

	assert.Equal(t, ViewLogin, d.ActiveViewID())
	assert.Equal(t, guard.PathLogin, d.Route())
	assert.Contains(t, d.View(), "Sign in with your employee ID")
	assert.NotContains(t, d.View(), "l: logout")
}

func TestTUI_LoginGoesHome(t *testing.T) {
	h := newHarness(t)
	d := newTestDriver(t, h, "")

	d.Send(submitLogin(h.app, loginFields{employeeID: " ADMIN001 ", password: "admin123"})())

	assert.Equal(t, ViewAdminDashboard, d.ActiveViewID())
	assert.Equal(t, guard.PathAdmin, d.Route())
	view := d.View()
	assert.Contains(t, view, "Total Employees")
	assert.Contains(t, view, "ADMIN001")
	assert.Contains(t, view, "1 Dashboard")
}

func TestTUI_LoginFailureStaysOnLogin(t *testing.T) {
	h := newHarness(t)
	d := newTestDriver(t, h, "")

	d.Send(submitLogin(h.app, loginFields{employeeID: "EMP001", password: "wrong"})())

	assert.Equal(t, ViewLogin, d.ActiveViewID())
	assert.Equal(t, "Invalid Employee ID or password", d.Toast())
	assert.False(t, h.app.Session.IsAuthenticated())

	d.Send(submitLogin(h.app, loginFields{employeeID: "EMP001"})())
	assert.Equal(t, "Employee ID and password are required", d.Toast())
}

func TestTUI_EmployeeIsKeptOutOfAdminPages(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	d := newTestDriver(t, h, guard.PathAdminAttendance)

	assert.Equal(t, guard.PathEmployee, d.Route())
	assert.Equal(t, ViewEmployeeDashboard, d.ActiveViewID())
}

func TestTUI_AdminNumberKeysNavigate(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, "")
	require.Equal(t, ViewAdminDashboard, d.ActiveViewID())

	d.PressKey('2')
	assert.Equal(t, ViewEmployees, d.ActiveViewID())
	assert.Equal(t, guard.PathAdminEmployees, d.Route())
	assert.Contains(t, d.View(), "Vikram Nair")

	d.PressKey('3')
	assert.Equal(t, ViewAttendanceMonitor, d.ActiveViewID())

	d.PressKey('4')
	assert.Equal(t, ViewMeetingsAdmin, d.ActiveViewID())

	d.PressKey('9')
	assert.Equal(t, ViewMeetingsAdmin, d.ActiveViewID(), "out-of-range keys are ignored")

	d.PressKey('1')
	assert.Equal(t, ViewAdminDashboard, d.ActiveViewID())
	assert.Equal(t, 1, d.ViewStackLen())
}

// =============================================================================
// Realtime refresh
// =============================================================================

func TestTUI_AttendanceUpdateRefetchesDashboard(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdmin)
	assert.NotContains(t, d.View(), "Asha Rao")

	emp := h.otherSession(t, "EMP001", "emp123")
	_, err := emp.CheckIn(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, d.View(), "Asha Rao", "nothing changes until the event arrives")

	h.channel.Fire(domain.EventAttendanceUpdate, domain.AttendanceUpdate{Type: domain.UpdateCheckIn, UserID: "EMP001"})
	assert.Equal(t, 1, d.Pending())
	d.Flush()

	assert.Contains(t, d.View(), "Asha Rao")
}

func TestTUI_LeavingPageReleasesHandlers(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdmin)

	assert.Equal(t, 1, h.channel.Count(domain.EventAttendanceUpdate))
	assert.Equal(t, 1, h.channel.Count(domain.EventBreakUpdate))
	assert.Equal(t, 1, h.channel.Count(domain.EventConnect))

	d.PressKey('2')
	assert.Zero(t, h.channel.Count(domain.EventAttendanceUpdate))
	assert.Zero(t, h.channel.Count(domain.EventBreakUpdate))
	assert.Equal(t, 1, h.channel.Count(domain.EventConnect), "employees page refetches on reconnect only")

	h.channel.Fire(domain.EventAttendanceUpdate, nil)
	assert.Zero(t, d.Pending())
}

func TestTUI_MissedMeetingsRefetchOnMeetingUpdate(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP002", "emp456")
	d := newTestDriver(t, h, guard.PathEmployeeMeetings)
	require.Equal(t, ViewMissedMeetings, d.ActiveViewID())
	assert.Contains(t, d.View(), "No missed meetings.")

	admin := h.otherSession(t, "ADMIN001", "admin123")
	_, err := admin.MarkMeetingAbsence(context.Background(), api.MarkAbsenceRequest{EmployeeID: "EMP002", Date: "2026-03-02"})
	require.NoError(t, err)

	h.channel.Fire(domain.EventAttendanceUpdate, nil)
	assert.Zero(t, d.Pending(), "this page ignores attendance updates")

	h.channel.Fire(domain.EventMeetingUpdate, domain.AttendanceUpdate{Type: domain.UpdateMeetingAbsence, UserID: "EMP002"})
	d.Flush()
	assert.Contains(t, d.View(), "2026-03-02")
}

// =============================================================================
// Session changes
// =============================================================================

func TestTUI_ExpiredSessionReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminEmployees)
	require.Equal(t, ViewEmployees, d.ActiveViewID())

	h.server.RevokeTokens()
	d.PressKey('r')

	_, redials, _ := h.channel.Calls()
	assert.Equal(t, 1, redials)
	assert.Equal(t, ViewLogin, d.ActiveViewID())
	assert.Equal(t, guard.PathLogin, d.Route())
	assert.Equal(t, "Session expired, please sign in again", d.Toast())
	assert.False(t, h.app.Session.IsAuthenticated())
	assert.Zero(t, h.channel.Count(domain.EventConnect))
}

func TestTUI_ExpiredSessionOnEmployeePageClearsStore(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	d := newTestDriver(t, h, guard.PathEmployeeAttendance)
	require.Equal(t, ViewMyAttendance, d.ActiveViewID())
	ctx := context.Background()

	h.server.RevokeTokens()
	h.channel.Fire(domain.EventAttendanceUpdate, domain.AttendanceUpdate{Type: domain.UpdateCheckIn, UserID: "EMP001"})
	d.Flush()

	assert.Equal(t, ViewLogin, d.ActiveViewID())
	assert.Equal(t, guard.PathLogin, d.Route())
	assert.Equal(t, "Session expired, please sign in again", d.Toast())
	assert.False(t, h.app.Session.IsAuthenticated())

	tok, err := h.app.Session.Store().Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	_, ok, err := h.app.Session.Store().Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTUI_LogoutShowsSignedOut(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	d := newTestDriver(t, h, "")
	require.Equal(t, ViewEmployeeDashboard, d.ActiveViewID())

	d.PressKey('l')

	assert.Equal(t, ViewLogin, d.ActiveViewID())
	assert.Equal(t, "Signed out", d.Toast())
	assert.False(t, h.app.Session.IsAuthenticated())
}

func TestTUI_QuitReleasesEverything(t *testing.T) {
	for _, quit := range []func(*TestDriver){
		func(d *TestDriver) { d.PressKey('q') },
		func(d *TestDriver) { d.PressCtrlC() },
	} {
		h := newHarness(t)
		h.signIn(t, "ADMIN001", "admin123")
		d := newTestDriver(t, h, guard.PathAdmin)

		quit(d)

		assert.True(t, d.Quitting)
		assert.Zero(t, h.channel.Total())
		assert.Empty(t, d.View())
	}
}

// =============================================================================
// Admin pages
// =============================================================================

func TestTUI_EmployeesFilter(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminEmployees)

	d.PressKey('/')
	d.Type("vik")
	d.PressKey('q')
	assert.False(t, d.Quitting, "keys go to the filter while it is open")
	d.PressBackspace()
	d.PressEnter()

	view := d.View()
	assert.Contains(t, view, "Vikram Nair")
	assert.NotContains(t, view, "Asha Rao")

	d.PressKey('/')
	d.PressEsc()
	assert.Contains(t, d.View(), "Asha Rao")
}

func TestTUI_FormEscCancels(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminEmployees)

	d.PressKey('n')
	require.Equal(t, ViewForm, d.ActiveViewID())
	assert.Equal(t, 2, d.ViewStackLen())

	d.PressKey('2')
	assert.Equal(t, ViewForm, d.ActiveViewID(), "number keys go to the form")

	d.PressEsc()
	assert.Equal(t, ViewEmployees, d.ActiveViewID())
	assert.Equal(t, 1, d.ViewStackLen())
	assert.Equal(t, "Cancelled", d.Toast())
}

func TestTUI_RegisterEmployee(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminEmployees)

	d.Send(submitRegister(h.app, registerFields{
		name: "Meera Iyer", email: "meera@hra.test", phone: "9000000009", password: "secret1",
	})())

	assert.Contains(t, d.Toast(), "Employee registered successfully: EMP")
	assert.Contains(t, d.View(), "Meera Iyer")

	d.Send(submitRegister(h.app, registerFields{
		name: "Meera Again", email: "meera@hra.test", phone: "9000000010", password: "secret1",
	})())
	assert.NotContains(t, d.View(), "Meera Again")
	assert.NotEmpty(t, d.Toast())
}

func TestTUI_MarkAbsence(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminMeetings)
	require.Equal(t, ViewMeetingsAdmin, d.ActiveViewID())

	d.Send(submitAbsence(h.app, absenceFields{employeeID: "EMP002", date: "2026-03-02"})())

	assert.Equal(t, "Meeting absence recorded for EMP002", d.Toast())
	assert.Contains(t, d.View(), "Vikram Nair")

	emitted := h.channel.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, domain.EventMeetingUpdate, emitted[0].Name)
}

func TestTUI_AttendanceMonitorFilters(t *testing.T) {
	h := newHarness(t)
	emp := h.otherSession(t, "EMP001", "emp123")
	_, err := emp.CheckIn(context.Background())
	require.NoError(t, err)

	h.signIn(t, "ADMIN001", "admin123")
	d := newTestDriver(t, h, guard.PathAdminAttendance)
	assert.Contains(t, d.View(), "Asha Rao")

	d.Send(dateFilterMsg{date: "2001-01-01"})
	assert.Contains(t, d.View(), "No attendance records match.")

	d.PressKey('t')
	assert.Contains(t, d.View(), "Asha Rao")

	d.PressKey('/')
	d.Type("vikram")
	d.PressEnter()
	assert.Contains(t, d.View(), "No attendance records match.")

	d.PressKey('c')
	assert.Contains(t, d.View(), "Asha Rao")
}

// =============================================================================
// Employee dashboard
// =============================================================================

func TestTUI_EmployeeActions(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	d := newTestDriver(t, h, guard.PathEmployee)
	assert.Contains(t, d.View(), "Not Checked In")

	d.PressKey('o')
	assert.Empty(t, h.channel.Emitted(), "check-out is not offered before check-in")

	d.PressKey('i')
	assert.Equal(t, "Checked in successfully", d.Toast())
	assert.Contains(t, d.View(), "Working")

	d.PressKey('t')
	assert.Contains(t, d.Toast(), "Tea break started")
	assert.Contains(t, d.View(), "Tea Break")

	d.PressKey('e')
	d.PressKey('o')
	assert.Contains(t, d.Toast(), "Checked out successfully")
	assert.Contains(t, d.View(), "Day Complete")

	assert.Len(t, h.channel.Emitted(), 4)
}

func TestTUI_EmployeeActionRollsBackOnRejection(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	d := newTestDriver(t, h, guard.PathEmployee)

	dash, ok := d.ActiveView().(*employeeDashboardView)
	require.True(t, ok)
	// Pretend a stale screen shows the employee as working.
	dash.status = domain.StatusWorking

	d.PressKey('u')

	assert.Equal(t, domain.StatusWorking, dash.status)
	assert.NotEmpty(t, d.Toast())
	assert.NotContains(t, d.Toast(), "started")
	assert.Empty(t, h.channel.Emitted())
}

func TestTUI_EmployeeNotifyFailureWarns(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "EMP001", "emp123")
	h.channel.EmitErr = assert.AnError
	d := newTestDriver(t, h, guard.PathEmployee)

	d.PressKey('i')

	assert.Contains(t, d.Toast(), "Checked in successfully")
	assert.Contains(t, d.Toast(), "other sessions were not notified")
	assert.Contains(t, d.View(), "Working")
}
