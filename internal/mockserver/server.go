// Package mockserver is an in-memory attendance backend speaking the same
// REST routes and realtime protocol as production. It backs tests and the
// hra-mock command.
package mockserver

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkahin/hra/internal/domain"
)

type Options struct {
	Secret       string
	TokenTTL     time.Duration
	PingInterval time.Duration
	PingTimeout  time.Duration
	Clock        domain.Clock
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	loc, err := domain.LoadZone("")
	if err != nil {
		loc = time.UTC
	}
	return Options{
		Secret:       "hra-mock-secret",
		TokenTTL:     12 * time.Hour,
		PingInterval: 25 * time.Second,
		PingTimeout:  20 * time.Second,
		Clock:        domain.NewClock(loc),
	}
}

type Server struct {
	router *gin.Engine
	hub    *Hub
	store  *store
	issuer *issuer
	logger *slog.Logger
}

func New(opts Options) *Server {
	def := DefaultOptions()
	if opts.Secret == "" {
		opts.Secret = def.Secret
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = def.TokenTTL
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = def.PingTimeout
	}
	if opts.Clock.IsZero() {
		opts.Clock = def.Clock
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router: gin.New(),
		hub:    NewHub(opts.Logger, opts.PingInterval, opts.PingTimeout),
		store:  newStore(opts.Clock),
		issuer: &issuer{secret: []byte(opts.Secret), ttl: opts.TokenTTL, now: opts.Clock.Now},
		logger: opts.Logger,
	}
	s.router.Use(gin.Recovery(), s.requestLog())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// RevokeTokens makes every outstanding token fail with 401.
func (s *Server) RevokeTokens() {
	s.issuer.revokeAll()
}

func (s *Server) routes() {
	s.router.Any("/socket.io/*any", s.hub.Serve)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sockets": s.hub.Connected()})
	})

	api := s.router.Group("/api")
	api.POST("/auth/login", s.login)

	authed := api.Group("", s.authRequired())
	authed.GET("/attendance/my", s.myAttendance)
	authed.POST("/attendance/check-in", s.checkIn)
	authed.POST("/attendance/check-out", s.checkOut)
	authed.POST("/attendance/break-start", s.breakStart)
	authed.POST("/attendance/break-end", s.breakEnd)
	authed.GET("/meeting/my-missed", s.myMissed)

	admin := authed.Group("", requireAdmin())
	admin.POST("/auth/register-employees", s.registerEmployee)
	admin.GET("/auth/employees", s.listEmployees)
	admin.GET("/attendance/all", s.allAttendance)
	admin.POST("/meeting/mark-not-attended", s.markNotAttended)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("mock_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
