package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const callerKey = "caller_email"

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// handleLogin exchanges form credentials for a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.respondError(c, apperr.Validation("username and password are required."))
		return
	}

	tok, err := s.services.Auth.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tok)
}

// handleRegister creates a new account.
func (s *Server) handleRegister(c *gin.Context) {
	var req models.UserCreate
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.services.Auth.Register(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, user)
}

// requireAuth verifies the bearer token and stores its subject for handlers.
// Whether the subject still maps to an active user is decided by the services.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			s.respondError(c, apperr.Unauthenticated("Not authenticated"))
			return
		}
		email, err := s.services.Auth.Identify(token)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.Set(callerKey, email)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
