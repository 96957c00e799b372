package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/search"
	"catalog-admin/internal/service"
	"catalog-admin/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Searcher runs full-text product queries
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

// Dependency is a backing service checked by the readiness probe
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	admin    *service.AdminService
	catalog  *catalog.Catalog
	searcher Searcher
	deps     []Dependency
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. searcher may be nil when search is disabled.
func NewHandler(admin *service.AdminService, searcher Searcher, deps ...Dependency) *Handler {
	return &Handler{
		admin:    admin,
		catalog:  admin.Catalog(),
		searcher: searcher,
		deps:     deps,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/search", h.searchProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products", h.createProduct)
		v1.PATCH("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
		v1.PUT("/products/:id/inventory", h.setInventory)
		v1.POST("/products/:id/inventory/adjust", h.adjustInventory)

		v1.GET("/alerts", h.listAlerts)
		v1.POST("/alerts/:productId/dismiss", h.dismissAlert)

		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:id", h.getCategory)
		v1.GET("/categories/:id/subcategories", h.listCategorySubcategories)
		v1.GET("/categories/:id/dependents", h.dependents(models.EntityCategory))
		v1.POST("/categories", h.createCategory)
		v1.PATCH("/categories/:id", h.updateCategory)
		v1.DELETE("/categories/:id", h.deleteCategory)

		v1.GET("/subcategories", h.listSubcategories)
		v1.GET("/subcategories/:id", h.getSubcategory)
		v1.GET("/subcategories/:id/dependents", h.dependents(models.EntitySubcategory))
		v1.POST("/subcategories", h.createSubcategory)
		v1.PATCH("/subcategories/:id", h.updateSubcategory)
		v1.DELETE("/subcategories/:id", h.deleteSubcategory)

		v1.GET("/brands", h.listBrands)
		v1.GET("/brands/:id", h.getBrand)
		v1.GET("/brands/:id/dependents", h.dependents(models.EntityBrand))
		v1.POST("/brands", h.createBrand)
		v1.PATCH("/brands/:id", h.updateBrand)
		v1.DELETE("/brands/:id", h.deleteBrand)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders", h.createOrder)
		v1.PATCH("/orders/:id/status", h.updateOrderStatus)
		v1.POST("/orders/:id/fulfill", h.fulfillOrder)

		v1.GET("/users", h.listUsers)
		v1.GET("/users/:id", h.getUser)
		v1.GET("/users/:id/orders", h.listUserOrders)
		v1.GET("/users/:id/activity", h.listUserActivity)
		v1.POST("/users", h.createUser)
		v1.PATCH("/users/:id", h.updateUser)
		v1.DELETE("/users/:id", h.deleteUser)
		v1.POST("/users/:id/login", h.recordLogin)

		v1.GET("/activity", h.listActivity)
		v1.POST("/activity", h.logActivity)

		v1.GET("/stats", h.getStats)
		v1.PUT("/collections/:entity", h.replaceCollection)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every backing service
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[dep.Name()] = err.Error()
			ready = false
			continue
		}
		checks[dep.Name()] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Stats())
}

// replaceCollection bulk-loads one collection from a JSON array body
func (h *Handler) replaceCollection(c *gin.Context) {
	entity, ok := models.ParseEntityType(c.Param("entity"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection", "code": catalog.CodeNotFound})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	records, err := catalog.DecodeCollection(entity, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.admin.ReplaceCollection(c.Request.Context(), entity, records); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps domain errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error(), "code": catalog.ErrorCode(err)}

	var (
		verr     *catalog.ValidationError
		depErr   *catalog.DependencyError
		shortErr *catalog.InsufficientInventoryError
	)
	switch {
	case errors.As(err, &verr):
		body["details"] = verr.Fields
	case errors.As(err, &depErr):
		body["details"] = depErr.DependentCount
	case errors.As(err, &shortErr):
		body["details"] = shortErr.Shortages
	}

	switch {
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, catalog.ErrDependencyExists),
		errors.Is(err, catalog.ErrInsufficientInventory),
		errors.Is(err, catalog.ErrInvalidTransition):
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, service.ErrRequestInFlight):
		body["code"] = "REQUEST_IN_FLIGHT"
		c.JSON(http.StatusConflict, body)
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": catalog.CodeInternal})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"code":    catalog.CodeValidation,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
