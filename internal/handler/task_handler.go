package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/internal/service/task"
)

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// List handles GET /projects/:id/tasks?status=&search=
func (h *TaskHandler) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	filter := model.NewTaskFilter(c.Query("status"), c.Query("search"))
	tasks, err := h.svc.List(c.Request.Context(), c.Param("id"), uid, filter)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newTaskResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, h.logger, bindError(err))
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	t, err := h.svc.Create(c.Request.Context(), c.Param("id"), uid, model.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	})
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(*t))
}

// Toggle handles PATCH /tasks/:id/toggle
func (h *TaskHandler) Toggle(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	t, err := h.svc.Toggle(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(*t))
}

// Delete handles DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
