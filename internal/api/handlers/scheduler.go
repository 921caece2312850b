// Package handlers holds route handlers that only depend on one service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviedeck/moviedeck/internal/scheduler"
)

// TaskRunner is the part of the scheduler exposed over the API.
type TaskRunner interface {
	ListTasks() []scheduler.TaskInfo
	GetTask(id string) (*scheduler.TaskInfo, error)
	RunNow(id string) error
}

// SchedulerHandler handles scheduler-related API requests.
type SchedulerHandler struct {
	scheduler TaskRunner
}

// NewSchedulerHandler creates a new scheduler handler.
func NewSchedulerHandler(sched TaskRunner) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched}
}

// RegisterRoutes registers task routes on the given group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListTasks)
	g.GET("/:id", h.GetTask)
	g.POST("/:id/run", h.RunTask)
}

// ListTasks returns all scheduled tasks.
// GET /api/v1/system/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns information about a specific task.
// GET /api/v1/system/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, task)
}

// RunTask manually triggers a task to run.
// POST /api/v1/system/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.RunNow(taskID); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, scheduler.ErrTaskRunning):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}
