package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/scheduler"
)

// SchedulerHandler exposes background task state.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched}
}

func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/tasks", h.ListTasks)
	g.GET("/tasks/:id", h.GetTask)
	g.POST("/tasks/:id/run", h.RunTask)
}

// ListTasks returns all scheduled tasks.
// GET /api/system/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return envelope.Success(c, http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns one task.
// GET /api/system/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return mapTaskError(err)
	}
	return envelope.Success(c, http.StatusOK, task)
}

// RunTask triggers a task outside its schedule.
// POST /api/system/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	id := c.Param("id")
	if err := h.scheduler.RunNow(id); err != nil {
		return mapTaskError(err)
	}
	return envelope.Success(c, http.StatusAccepted, map[string]string{"task_id": id})
}

func mapTaskError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrTaskRunning):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "task operation failed").SetInternal(err)
	}
}
