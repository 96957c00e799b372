package api

import (
	"net/http"
	"strconv"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"

	"github.com/gin-gonic/gin"
)

type inventoryRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type searchResult struct {
	Product models.Product `json:"product"`
	Score   float64        `json:"score"`
}

func (h *Handler) listProducts(c *gin.Context) {
	filter := catalog.ProductFilter{
		CategoryID:    c.Query("category_id"),
		SubcategoryID: c.Query("subcategory_id"),
		BrandID:       c.Query("brand_id"),
	}
	if raw := c.Query("low_stock"); raw != "" {
		lowStock, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid low_stock flag", "code": catalog.CodeValidation})
			return
		}
		filter.LowStockOnly = lowStock
	}
	c.JSON(http.StatusOK, h.catalog.FindProducts(filter))
}

// searchProducts runs a full-text query and returns the matching catalog products
func (h *Handler) searchProducts(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product search is not configured"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query", "code": catalog.CodeValidation})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hits, err := h.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		p, err := h.catalog.Product(hit.ProductID)
		if err != nil {
			// index lags behind a delete
			continue
		}
		results = append(results, searchResult{Product: p, Score: hit.Score})
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.catalog.Product(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req catalog.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.admin.AddProduct(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req catalog.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.admin.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setInventory(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.admin.UpdateInventory(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) adjustInventory(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.admin.AdjustInventory(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Alerts())
}

func (h *Handler) dismissAlert(c *gin.Context) {
	if err := h.admin.DismissAlert(c.Request.Context(), c.Param("productId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
