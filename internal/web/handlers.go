package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"day-planner/internal/export"
	"day-planner/internal/model"
	"day-planner/internal/service"
)

const maxBodySize = 64 << 10

type taskRequest struct {
	service.TaskInput
	AllowConflict bool `json:"allowConflict"`
}

type moveRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "workspaces": s.registry.Len()})
}

// handleSession answers the mini-app handshake.
func (s *Server) handleSession(c *gin.Context) {
	user := currentUser(c)
	if s.opts.Users != nil {
		_, err := s.opts.Users.Upsert(c.Request.Context(), model.User{
			TelegramID: user.ID,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Username:   user.Username,
		})
		if err != nil {
			log.Printf("[warn] record user %d: %v", user.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ready":      true,
		"user":       user,
		"today":      model.FormatDate(s.now()),
		"categories": s.categories.List(currentStore(c)),
	})
}

func (s *Server) handleListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.categories.List(currentStore(c)))
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := s.categories.Create(c.Request.Context(), currentStore(c), req.Name, req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleDay(c *gin.Context) {
	view, err := s.tasks.Day(currentStore(c), c.Param("date"), c.Query("filter"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleDayICS(c *gin.Context) {
	st := currentStore(c)
	date := c.Param("date")
	body, err := export.DayCalendar(st.Tasks(), st.Categories(), date, c.DefaultQuery("filter", service.FilterAll), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(date)+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.tasks.Save(c.Request.Context(), currentStore(c), req.TaskInput, service.SaveOptions{
		AllowConflict: req.AllowConflict,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.tasks.Save(c.Request.Context(), currentStore(c), req.TaskInput, service.SaveOptions{
		EditingID:     c.Param("id"),
		AllowConflict: req.AllowConflict,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), currentStore(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleTask(c *gin.Context) {
	task, err := s.tasks.ToggleCompletion(c.Request.Context(), currentStore(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.tasks.Move(c.Request.Context(), currentStore(c), c.Param("id"), req.Date, req.Time)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// writeError maps service outcomes to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if conflict, ok := service.ConflictOf(err); ok {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "conflict": conflict})
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateCategory):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": verr.Field})
	default:
		log.Printf("[warn] api request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
