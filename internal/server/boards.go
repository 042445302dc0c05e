package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

// handleListBoards returns the boards administered by the caller.
func (s *Server) handleListBoards(c *gin.Context) {
	q, ok := s.bindPage(c)
	if !ok {
		return
	}
	page, err := s.services.Boards.List(c.Request.Context(), caller(c), q.Offset, q.Limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// handleGetBoard returns a board with its tasks, optionally filtered by
// status and priority.
func (s *Server) handleGetBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	detail, err := s.services.Boards.Get(c.Request.Context(), id, caller(c), c.Query("status"), c.Query("priority"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleCreateBoard creates a board administered by the caller.
func (s *Server) handleCreateBoard(c *gin.Context) {
	var req models.BoardCreate
	if !s.bindJSON(c, &req) {
		return
	}
	board, err := s.services.Boards.Create(c.Request.Context(), req, caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, board)
}

// handleUpdateBoard renames a board.
func (s *Server) handleUpdateBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req models.BoardUpdate
	if !s.bindJSON(c, &req) {
		return
	}
	board, err := s.services.Boards.Update(c.Request.Context(), id, req, caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, board)
}

// handleDeleteBoard removes a board together with its tasks and collaborators.
func (s *Server) handleDeleteBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Boards.Delete(c.Request.Context(), id, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleAddCollaborator links a user to the board.
func (s *Server) handleAddCollaborator(c *gin.Context) {
	boardID, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := s.parseID(c, "userId")
	if !ok {
		return
	}
	if err := s.services.Boards.AddCollaborator(c.Request.Context(), boardID, userID, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondDetail(c, http.StatusOK, "Collaborator added successfully")
}

// handleRemoveCollaborator unlinks a user and clears their assignments.
func (s *Server) handleRemoveCollaborator(c *gin.Context) {
	boardID, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := s.parseID(c, "userId")
	if !ok {
		return
	}
	if err := s.services.Boards.RemoveCollaborator(c.Request.Context(), boardID, userID, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondDetail(c, http.StatusOK, "Collaborator removed successfully")
}
