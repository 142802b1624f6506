package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/internal/service/project"
)

type ProjectHandler struct {
	svc    *project.Service
	logger *zap.Logger
}

func NewProjectHandler(svc *project.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

type createProjectRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// List handles GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	views, err := h.svc.List(c.Request.Context(), uid)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	resp := make([]projectResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newProjectResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	v, err := h.svc.Get(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(*v))
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		WriteError(c, h.logger, model.ErrUnauthenticated)
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, h.logger, bindError(err))
		return
	}

	v, err := h.svc.Create(c.Request.Context(), uid, model.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newProjectResponse(*v))
}

// Delete handles DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
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
