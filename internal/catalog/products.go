package catalog

import (
	"catalog-admin/internal/models"
)

// AddProduct creates a product and re-derives inventory alerts
func (c *Catalog) AddProduct(in ProductInput) (models.Product, models.Events, error) {
	verr := check(in)
	if !in.Price.IsPositive() {
		verr = merge(verr, invalidField("price", "must be greater than zero"))
	}
	if verr != nil {
		return models.Product{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkProductRefs(in.CategoryID, in.SubcategoryID, in.BrandID); err != nil {
		return models.Product{}, nil, err
	}

	now := c.now()
	p := &models.Product{
		ID:             c.newID(),
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Image:          in.Image,
		Inventory:      in.Inventory,
		CategoryID:     in.CategoryID,
		SubcategoryID:  in.SubcategoryID,
		BrandID:        in.BrandID,
		Specifications: in.Specifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored := p.Clone()
	c.products.add(p.ID, &stored)

	events := models.Events{c.event(models.EventTypeProductCreated, models.EntityProduct, p.ID, stored.Clone(), now)}
	events = c.appendAlertEvents(events, now)
	return stored.Clone(), events, nil
}

// UpdateProduct merges the non-nil fields of patch into the product
func (c *Catalog) UpdateProduct(id string, patch ProductPatch) (models.Product, models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.products.get(id)
	if !ok {
		return models.Product{}, nil, notFound(models.EntityProduct, id)
	}

	next := current.Clone()
	applyProductPatch(&next, patch)

	verr := check(ProductInput{
		Name:       next.Name,
		Inventory:  next.Inventory,
		CategoryID: next.CategoryID,
		BrandID:    next.BrandID,
	})
	if !next.Price.IsPositive() {
		verr = merge(verr, invalidField("price", "must be greater than zero"))
	}
	if verr != nil {
		return models.Product{}, nil, verr
	}

	if patch.CategoryID != nil || patch.SubcategoryID != nil || patch.BrandID != nil {
		if err := c.checkProductRefs(next.CategoryID, next.SubcategoryID, next.BrandID); err != nil {
			return models.Product{}, nil, err
		}
	}

	now := c.now()
	next.UpdatedAt = now
	*current = next

	events := models.Events{c.event(models.EventTypeProductUpdated, models.EntityProduct, id, next.Clone(), now)}
	events = c.appendAlertEvents(events, now)
	return next.Clone(), events, nil
}

func applyProductPatch(p *models.Product, patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Inventory != nil {
		p.Inventory = *patch.Inventory
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SubcategoryID != nil {
		p.SubcategoryID = *patch.SubcategoryID
	}
	if patch.BrandID != nil {
		p.BrandID = *patch.BrandID
	}
	if patch.Specifications != nil {
		p.Specifications = models.Product{Specifications: *patch.Specifications}.Clone().Specifications
	}
}

// DeleteProduct removes a product together with its alert
func (c *Catalog) DeleteProduct(id string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.products.remove(id) {
		return nil, notFound(models.EntityProduct, id)
	}

	now := c.now()
	events := models.Events{c.event(models.EventTypeProductDeleted, models.EntityProduct, id, nil, now)}
	events = c.appendAlertEvents(events, now)
	return events, nil
}

// checkProductRefs verifies that a product points at existing taxonomy records
func (c *Catalog) checkProductRefs(categoryID, subcategoryID, brandID string) error {
	var verr *ValidationError
	if _, ok := c.categories.get(categoryID); !ok {
		verr = merge(verr, invalidField("category_id", "references an unknown category"))
	}
	if _, ok := c.brands.get(brandID); !ok {
		verr = merge(verr, invalidField("brand_id", "references an unknown brand"))
	}
	if subcategoryID != "" {
		sub, ok := c.subcategories.get(subcategoryID)
		switch {
		case !ok:
			verr = merge(verr, invalidField("subcategory_id", "references an unknown subcategory"))
		case sub.CategoryID != categoryID:
			verr = merge(verr, invalidField("subcategory_id", "belongs to a different category"))
		}
	}
	return asError(verr)
}

// Product returns a product by id
func (c *Catalog) Product(id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products.get(id)
	if !ok {
		return models.Product{}, notFound(models.EntityProduct, id)
	}
	return p.Clone(), nil
}

// Products lists products in creation order
func (c *Catalog) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, 0, c.products.len())
	c.products.each(func(p *models.Product) { out = append(out, p.Clone()) })
	return out
}

// ProductFilter narrows a product listing; empty fields match everything
type ProductFilter struct {
	CategoryID    string
	SubcategoryID string
	BrandID       string
	LowStockOnly  bool
}

// FindProducts lists the products matching f
func (c *Catalog) FindProducts(f ProductFilter) []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, 0)
	c.products.each(func(p *models.Product) {
		switch {
		case f.CategoryID != "" && p.CategoryID != f.CategoryID:
		case f.SubcategoryID != "" && p.SubcategoryID != f.SubcategoryID:
		case f.BrandID != "" && p.BrandID != f.BrandID:
		case f.LowStockOnly && p.Inventory > c.threshold:
		default:
			out = append(out, p.Clone())
		}
	})
	return out
}
