package handler

import (
	"net/http"
	"strconv"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/middleware"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/gin-gonic/gin"
)

const taskNotFound = "task not found"

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) createTask(c *gin.Context) {
	var body dto.CreateTaskDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "title is required")
		return
	}

	if _, err := h.tasks.Create(c.Request.Context(), middleware.Account(c), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "task created"})
}

func (h *Handler) listTasks(c *gin.Context) {
	list, err := h.tasks.List(c.Request.Context(), middleware.Account(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) toggleTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		fail(c, http.StatusNotFound, taskNotFound)
		return
	}

	if err := h.tasks.Toggle(c.Request.Context(), middleware.Account(c), id); err != nil {
		if customErrors.IsNotFound(err) {
			fail(c, http.StatusNotFound, taskNotFound)
			return
		}
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "task toggled"})
}

// deleteTask answers 200 with success=false for absent and foreign rows alike.
func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		fail(c, http.StatusOK, taskNotFound)
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), middleware.Account(c), id); err != nil {
		if customErrors.IsNotFound(err) {
			fail(c, http.StatusOK, taskNotFound)
			return
		}
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "task deleted"})
}
