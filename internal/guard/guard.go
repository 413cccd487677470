// Package guard admits or redirects navigation based on the signed-in
// session. Every function here is pure.
package guard

import (
	"strings"

	"github.com/ikkahin/hra/internal/domain"
)

// Route paths.
const (
	PathRoot               = "/"
	PathLogin              = "/login"
	PathAdmin              = "/admin"
	PathAdminEmployees     = "/admin/employees"
	PathAdminAttendance    = "/admin/attendance"
	PathAdminMeetings      = "/admin/meetings"
	PathEmployee           = "/employee"
	PathEmployeeAttendance = "/employee/attendance"
	PathEmployeeMeetings   = "/employee/meetings"
)

// Decision is the outcome of a guard check. RedirectTo is empty when the
// navigation is admitted.
type Decision struct {
	Admit      bool
	RedirectTo string
}

func admit() Decision               { return Decision{Admit: true} }
func redirect(path string) Decision { return Decision{RedirectTo: path} }

// Decide admits when authenticated and the role matches the requirement
// (an empty required role admits any signed-in user). Otherwise it
// redirects to /login, or to the caller's own home on a role mismatch.
func Decide(authenticated bool, role, required domain.Role) Decision {
	if !authenticated {
		return redirect(PathLogin)
	}
	if required != "" && role != required {
		return redirect(HomeFor(role))
	}
	return admit()
}

// HomeFor is the landing page for role.
func HomeFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return PathAdmin
	}
	return PathEmployee
}

// Route is one entry of the route table.
type Route struct {
	Path  string
	Title string
	// Required is the role the page demands; empty means public.
	Required domain.Role
	Public   bool
}

var routes = []Route{
	{Path: PathLogin, Title: "Login", Public: true},
	{Path: PathAdmin, Title: "Dashboard", Required: domain.RoleAdmin},
	{Path: PathAdminEmployees, Title: "Employees", Required: domain.RoleAdmin},
	{Path: PathAdminAttendance, Title: "Attendance", Required: domain.RoleAdmin},
	{Path: PathAdminMeetings, Title: "Meetings", Required: domain.RoleAdmin},
	{Path: PathEmployee, Title: "Dashboard", Required: domain.RoleEmployee},
	{Path: PathEmployeeAttendance, Title: "My Attendance", Required: domain.RoleEmployee},
	{Path: PathEmployeeMeetings, Title: "Missed Meetings", Required: domain.RoleEmployee},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup finds the route for path, ignoring a trailing slash.
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// Resolve applies the route table: "/" and unknown paths go to /login,
// the login page sends a signed-in user home, and guarded pages go
// through Decide.
func Resolve(path string, authenticated bool, role domain.Role) Decision {
	r, ok := Lookup(path)
	if !ok {
		return redirect(PathLogin)
	}
	if r.Public {
		if authenticated && r.Path == PathLogin {
			return redirect(HomeFor(role))
		}
		return admit()
	}
	return Decide(authenticated, role, r.Required)
}

// Final follows redirects from path until a page admits. Resolve never
// chains more than twice, so the loop is bounded.
func Final(path string, authenticated bool, role domain.Role) string {
	for i := 0; i < 4; i++ {
		d := Resolve(path, authenticated, role)
		if d.Admit {
			return normalize(path)
		}
		path = d.RedirectTo
	}
	return PathLogin
}

// NavItems lists the sidebar pages for role, in display order.
func NavItems(role domain.Role) []Route {
	var out []Route
	for _, r := range routes {
		if !r.Public && r.Required == role {
			out = append(out, r)
		}
	}
	return out
}
