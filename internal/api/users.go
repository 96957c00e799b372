package api

import (
	"net/http"

	"catalog-admin/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Users())
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.catalog.User(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	if _, err := h.catalog.User(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.catalog.OrdersByUser(c.Param("id")))
}

func (h *Handler) listUserActivity(c *gin.Context) {
	if _, err := h.catalog.User(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.catalog.ActivityLogs(c.Param("id")))
}

func (h *Handler) createUser(c *gin.Context) {
	var req catalog.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.admin.AddUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	var req catalog.UserPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) recordLogin(c *gin.Context) {
	user, err := h.admin.RecordLogin(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listActivity(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ActivityLogs(c.Query("user_id")))
}

func (h *Handler) logActivity(c *gin.Context) {
	var req catalog.ActivityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.admin.LogActivity(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
