package mockserver

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkahin/hra/internal/domain"
)

type claims struct {
	EmployeeID string `json:"employeeId"`
	Role       string `json:"role"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

type issuer struct {
	secret     []byte
	ttl        time.Duration
	generation atomic.Int64
	now        func() time.Time
}

func (i *issuer) issue(acct *account) (string, error) {
	now := i.now()
	c := claims{
		EmployeeID: acct.EmployeeID,
		Role:       string(acct.Role),
		Generation: i.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

func (i *issuer) parse(raw string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Generation != i.generation.Load() {
		return nil, errors.New("token revoked")
	}
	return c, nil
}

// revokeAll invalidates every token issued so far.
func (i *issuer) revokeAll() {
	i.generation.Add(1)
}

const (
	ctxEmployeeID = "employee_id"
	ctxRole       = "role"
)

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
			return
		}
		cl, err := s.issuer.parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Set(ctxEmployeeID, cl.EmployeeID)
		c.Set(ctxRole, cl.Role)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != string(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}
