package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

// handleCreateTask adds a task to a board. Missing status and priority
// default to TODO and MEDIUM.
func (s *Server) handleCreateTask(c *gin.Context) {
	boardID, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req models.TaskCreate
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.services.Tasks.Create(c.Request.Context(), boardID, req, caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.services.Tasks.Get(c.Request.Context(), id, caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleUpdateTask applies a partial update; any status transition is allowed.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req models.TaskUpdate
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.services.Tasks.Update(c.Request.Context(), id, req, caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Tasks.Delete(c.Request.Context(), id, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleAssignTask gives a task to the admin or a collaborator.
func (s *Server) handleAssignTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := s.parseID(c, "userId")
	if !ok {
		return
	}
	if _, err := s.services.Tasks.Assign(c.Request.Context(), id, userID, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondDetail(c, http.StatusOK, "Task assigned successfully")
}

// handleUnassignTask clears a task's assignee.
func (s *Server) handleUnassignTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.services.Tasks.Unassign(c.Request.Context(), id, caller(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondDetail(c, http.StatusOK, "Task unassigned successfully")
}
