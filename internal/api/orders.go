package api

import (
	"net/http"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"

	"github.com/gin-gonic/gin"
)

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *Handler) listOrders(c *gin.Context) {
	if userID := c.Query("user_id"); userID != "" {
		c.JSON(http.StatusOK, h.catalog.OrdersByUser(userID))
		return
	}
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status", "code": catalog.CodeValidation})
		return
	}
	c.JSON(http.StatusOK, h.catalog.Orders(status))
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.catalog.Order(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// createOrder records an order. A repeated Idempotency-Key returns the
// original order with 200 instead of creating another.
func (h *Handler) createOrder(c *gin.Context) {
	var req catalog.OrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, duplicate, err := h.admin.PlaceOrder(c.Request.Context(), c.GetHeader("Idempotency-Key"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if duplicate {
		c.JSON(http.StatusOK, order)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.admin.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) fulfillOrder(c *gin.Context) {
	order, err := h.admin.FulfillOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
