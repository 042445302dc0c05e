package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/service"
)

// Options tunes the optional parts of the router.
type Options struct {
	// DocsDir is served under /docs when it exists.
	DocsDir string
	// LoginRate and LoginBurst throttle POST /auth/login per client IP.
	// Zero values disable throttling.
	LoginRate  float64
	LoginBurst int
	// Health reports storage readiness for /healthz. Nil means always ready.
	Health func(context.Context) error
}

// Server provides HTTP handlers for the task board API.
type Server struct {
	engine   *gin.Engine
	services *service.Services
	logger   *slog.Logger
	docsDir  string
	metrics  *metrics
	limiter  *ipRateLimiter
	health   func(context.Context) error
}

// New constructs the HTTP server with routes and middleware configured.
func New(services *service.Services, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		engine:   router,
		services: services,
		logger:   logger,
		docsDir:  opts.DocsDir,
		metrics:  newMetrics(),
		health:   opts.Health,
	}
	if opts.LoginRate > 0 && opts.LoginBurst > 0 {
		srv.limiter = newIPRateLimiter(opts.LoginRate, opts.LoginBurst)
	}

	router.Use(gin.CustomRecovery(srv.recoverPanic))
	router.Use(requestID())
	router.Use(srv.metrics.instrument())
	router.Use(srv.logRequests())

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := s.engine.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", s.throttleLogin(), s.handleLogin)
			auth.POST("/register", s.handleRegister)
		}

		protected := api.Group("", s.requireAuth())

		users := protected.Group("/users")
		{
			users.GET("/me", s.handleMe)
			users.GET("", s.handleListUsers)
		}

		boards := protected.Group("/boards")
		{
			boards.GET("", s.handleListBoards)
			boards.POST("", s.handleCreateBoard)
			boards.GET("/:id", s.handleGetBoard)
			boards.PATCH("/:id", s.handleUpdateBoard)
			boards.DELETE("/:id", s.handleDeleteBoard)
			boards.POST("/:id/collaborator/:userId", s.handleAddCollaborator)
			boards.DELETE("/:id/collaborator/:userId", s.handleRemoveCollaborator)
			boards.POST("/:id/tasks", s.handleCreateTask)
		}

		tasks := protected.Group("/tasks")
		{
			tasks.GET("/:id", s.handleGetTask)
			tasks.PATCH("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
			tasks.POST("/:id/assign/:userId", s.handleAssignTask)
			tasks.POST("/:id/unassign", s.handleUnassignTask)
		}
	}

	s.mountDocs()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, apperr.Validation("Invalid %s: %q.", name, raw))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst, answering 400 on failure.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, apperr.Validation("Invalid request body: %s", err.Error()))
		return false
	}
	return true
}

type pageQuery struct {
	Offset int `form:"offset,default=0" binding:"min=0"`
	Limit  int `form:"limit,default=100" binding:"min=1,max=100"`
}

func (s *Server) bindPage(c *gin.Context) (pageQuery, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, apperr.Validation("offset must be >= 0 and limit between 1 and 100."))
		return pageQuery{}, false
	}
	return q, true
}

// respondDetail answers with a {"detail": msg} body.
func respondDetail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
