package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
)

// handleMe returns the account behind the bearer token. Any failure to
// resolve it is reported as 401.
func (s *Server) handleMe(c *gin.Context) {
	user, err := s.services.Users.Me(c.Request.Context(), caller(c))
	if apperr.Is(err, apperr.KindNotFound) {
		err = apperr.Unauthenticated("Could not validate credentials")
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// handleListUsers pages through every registered user.
func (s *Server) handleListUsers(c *gin.Context) {
	q, ok := s.bindPage(c)
	if !ok {
		return
	}
	page, err := s.services.Users.List(c.Request.Context(), q.Offset, q.Limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}
