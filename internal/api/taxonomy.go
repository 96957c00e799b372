package api

import (
	"net/http"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"

	"github.com/gin-gonic/gin"
)

// dependents reports what still references a category, subcategory or brand
func (h *Handler) dependents(entity models.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		d := h.catalog.Dependents(entity, id)
		c.JSON(http.StatusOK, gin.H{
			"entity":        entity,
			"id":            id,
			"subcategories": d.Subcategories,
			"products":      d.Products,
			"can_delete":    !d.Blocking(),
		})
	}
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Categories())
}

func (h *Handler) getCategory(c *gin.Context) {
	category, err := h.catalog.Category(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) listCategorySubcategories(c *gin.Context) {
	if _, err := h.catalog.Category(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.catalog.Subcategories(c.Param("id")))
}

func (h *Handler) createCategory(c *gin.Context) {
	var req catalog.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.admin.AddCategory(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	var req catalog.NamePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.admin.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.admin.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSubcategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Subcategories(c.Query("category_id")))
}

func (h *Handler) getSubcategory(c *gin.Context) {
	sub, err := h.catalog.Subcategory(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) createSubcategory(c *gin.Context) {
	var req catalog.SubcategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sub, err := h.admin.AddSubcategory(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) updateSubcategory(c *gin.Context) {
	var req catalog.SubcategoryPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sub, err := h.admin.UpdateSubcategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) deleteSubcategory(c *gin.Context) {
	if err := h.admin.DeleteSubcategory(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listBrands(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Brands())
}

func (h *Handler) getBrand(c *gin.Context) {
	brand, err := h.catalog.Brand(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (h *Handler) createBrand(c *gin.Context) {
	var req catalog.BrandInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	brand, err := h.admin.AddBrand(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (h *Handler) updateBrand(c *gin.Context) {
	var req catalog.NamePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	brand, err := h.admin.UpdateBrand(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (h *Handler) deleteBrand(c *gin.Context) {
	if err := h.admin.DeleteBrand(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
