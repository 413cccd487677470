package mockserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkahin/hra/internal/domain"
)

type loginBody struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type registerBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type breakBody struct {
	BreakType string `json:"breakType" binding:"required"`
}

type markBody struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Date       string `json:"date" binding:"required"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Employee ID and password are required")
		return
	}
	acct, ok := s.store.authenticate(body.EmployeeID, body.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	token, err := s.issuer.issue(acct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      token,
		"role":       strings.ToUpper(string(acct.Role)),
		"employeeId": acct.EmployeeID,
	})
}

func (s *Server) registerEmployee(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Name, email, phone and password are required")
		return
	}
	acct, err := s.store.register(body.Name, body.Email, body.Phone, body.Password)
	if errors.Is(err, errDuplicateEmail) {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Employee registered successfully",
		"employee": employeeJSON(*acct),
	})
}

func employeeJSON(a account) gin.H {
	return gin.H{
		"employee_id": a.EmployeeID,
		"name":        a.Name,
		"email":       a.Email,
		"phone":       a.Phone,
		"createdAt":   a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Server) listEmployees(c *gin.Context) {
	list := s.store.employees()
	out := make([]gin.H, 0, len(list))
	for _, a := range list {
		out = append(out, employeeJSON(a))
	}
	c.JSON(http.StatusOK, gin.H{"employees": out})
}

func (s *Server) allAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(s.store.records("")))
}

func (s *Server) myAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(s.store.records(c.GetString(ctxEmployeeID))))
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func (s *Server) notify(event, kind, employeeID string) {
	s.hub.Emit(event, domain.AttendanceUpdate{Type: kind, UserID: employeeID, Timestamp: time.Now().UTC()})
}

func (s *Server) checkIn(c *gin.Context) {
	id := c.GetString(ctxEmployeeID)
	at, err := s.store.checkIn(id)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.notify(domain.EventAttendanceUpdate, domain.UpdateCheckIn, id)
	c.JSON(http.StatusOK, gin.H{"message": "Checked in successfully", "checkInTime": at.Format(time.RFC3339Nano)})
}

func (s *Server) checkOut(c *gin.Context) {
	id := c.GetString(ctxEmployeeID)
	at, hours, err := s.store.checkOut(id)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.notify(domain.EventAttendanceUpdate, domain.UpdateCheckOut, id)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Checked out successfully",
		"checkOutTime": at.Format(time.RFC3339Nano),
		"workingHours": hours,
	})
}

func (s *Server) breakStart(c *gin.Context) {
	var body breakBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Break type is required")
		return
	}
	kind, err := domain.ParseBreakType(body.BreakType)
	if err != nil {
		badRequest(c, "Break type must be TEA or LUNCH")
		return
	}
	id := c.GetString(ctxEmployeeID)
	at, allowed, err := s.store.startBreak(id, kind)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.notify(domain.EventBreakUpdate, domain.UpdateBreakStart, id)
	c.JSON(http.StatusOK, gin.H{
		"message":                kind.Title() + " break started",
		"startTime":              at.Format(time.RFC3339Nano),
		"allowedDurationMinutes": allowed,
	})
}

func (s *Server) breakEnd(c *gin.Context) {
	id := c.GetString(ctxEmployeeID)
	at, err := s.store.endBreak(id)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.notify(domain.EventBreakUpdate, domain.UpdateBreakEnd, id)
	c.JSON(http.StatusOK, gin.H{"message": "Break ended", "endTime": at.Format(time.RFC3339Nano)})
}

func (s *Server) markNotAttended(c *gin.Context) {
	var body markBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Employee ID and date are required")
		return
	}
	if _, err := domain.ParseDate(body.Date); err != nil {
		badRequest(c, "Date must be YYYY-MM-DD")
		return
	}
	row, err := s.store.markMissed(strings.TrimSpace(body.EmployeeID), body.Date)
	switch {
	case errors.Is(err, errUnknownEmployee):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	case errors.Is(err, errAlreadyMarked):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not mark absence"})
		return
	}
	s.notify(domain.EventMeetingUpdate, domain.UpdateMeetingAbsence, row.EmployeeID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Meeting absence recorded",
		"record": gin.H{
			"employeeId": row.EmployeeID,
			"date":       row.Date,
			"markedAt":   row.MarkedAt.Format(time.RFC3339Nano),
		},
	})
}

func (s *Server) myMissed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"missedMeetings": nonNil(s.store.missedFor(c.GetString(ctxEmployeeID)))})
}
