package catalog

import (
	"catalog-admin/internal/models"

	"go.uber.org/zap"
)

// DependentCount is the number of records still referencing a category, subcategory or brand
type DependentCount struct {
	Subcategories int `json:"subcategories"`
	Products      int `json:"products"`
}

// Blocking reports whether any dependent exists
func (d DependentCount) Blocking() bool {
	return d.Subcategories > 0 || d.Products > 0
}

// Dependents counts the records that reference the given entity
func (c *Catalog) Dependents(entity models.EntityType, id string) DependentCount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dependents(entity, id)
}

func (c *Catalog) dependents(entity models.EntityType, id string) DependentCount {
	var d DependentCount
	switch entity {
	case models.EntityCategory:
		d.Subcategories = c.subcategories.count(func(s *models.Subcategory) bool { return s.CategoryID == id })
		d.Products = c.products.count(func(p *models.Product) bool { return p.CategoryID == id })
	case models.EntitySubcategory:
		d.Products = c.products.count(func(p *models.Product) bool { return p.SubcategoryID == id })
	case models.EntityBrand:
		d.Products = c.products.count(func(p *models.Product) bool { return p.BrandID == id })
	}
	return d
}

// CanDeleteCategory is false while any subcategory or product references the category
func (c *Catalog) CanDeleteCategory(id string) bool {
	return !c.Dependents(models.EntityCategory, id).Blocking()
}

// CanDeleteSubcategory is false while any product references the subcategory
func (c *Catalog) CanDeleteSubcategory(id string) bool {
	return !c.Dependents(models.EntitySubcategory, id).Blocking()
}

// CanDeleteBrand is false while any product references the brand
func (c *Catalog) CanDeleteBrand(id string) bool {
	return !c.Dependents(models.EntityBrand, id).Blocking()
}

// guardDelete returns a DependencyError when the entity is still referenced
func (c *Catalog) guardDelete(entity models.EntityType, id string) error {
	d := c.dependents(entity, id)
	if !d.Blocking() {
		return nil
	}
	c.logger.Warn("Delete refused, dependents exist",
		zap.String("entity", string(entity)),
		zap.String("id", id),
		zap.Int("subcategories", d.Subcategories),
		zap.Int("products", d.Products))
	return &DependencyError{Entity: entity, ID: id, DependentCount: d}
}

// AddCategory creates a category
func (c *Catalog) AddCategory(in CategoryInput) (models.Category, models.Events, error) {
	if verr := check(in); verr != nil {
		return models.Category{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cat := &models.Category{ID: c.newID(), Name: in.Name, CreatedAt: now, UpdatedAt: now}
	c.categories.add(cat.ID, cat)

	return *cat, models.Events{c.event(models.EventTypeCategoryCreated, models.EntityCategory, cat.ID, *cat, now)}, nil
}

// UpdateCategory renames a category
func (c *Catalog) UpdateCategory(id string, patch NamePatch) (models.Category, models.Events, error) {
	if patch.Name != nil && *patch.Name == "" {
		return models.Category{}, nil, invalidField("name", "is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cat, ok := c.categories.get(id)
	if !ok {
		return models.Category{}, nil, notFound(models.EntityCategory, id)
	}
	now := c.now()
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	cat.UpdatedAt = now

	return *cat, models.Events{c.event(models.EventTypeCategoryUpdated, models.EntityCategory, id, *cat, now)}, nil
}

// DeleteCategory removes a category that nothing references
func (c *Catalog) DeleteCategory(id string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.categories.get(id); !ok {
		return nil, notFound(models.EntityCategory, id)
	}
	if err := c.guardDelete(models.EntityCategory, id); err != nil {
		return nil, err
	}
	c.categories.remove(id)

	return models.Events{c.event(models.EventTypeCategoryDeleted, models.EntityCategory, id, nil, c.now())}, nil
}

// AddSubcategory creates a subcategory under an existing category
func (c *Catalog) AddSubcategory(in SubcategoryInput) (models.Subcategory, models.Events, error) {
	if verr := check(in); verr != nil {
		return models.Subcategory{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.categories.get(in.CategoryID); !ok {
		return models.Subcategory{}, nil, invalidField("category_id", "references an unknown category")
	}

	now := c.now()
	sub := &models.Subcategory{
		ID:         c.newID(),
		Name:       in.Name,
		CategoryID: in.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.subcategories.add(sub.ID, sub)

	return *sub, models.Events{c.event(models.EventTypeSubcategoryCreated, models.EntitySubcategory, sub.ID, *sub, now)}, nil
}

// UpdateSubcategory renames or moves a subcategory.
// Moving is refused while products reference it, since their category would no longer match.
func (c *Catalog) UpdateSubcategory(id string, patch SubcategoryPatch) (models.Subcategory, models.Events, error) {
	if patch.Name != nil && *patch.Name == "" {
		return models.Subcategory{}, nil, invalidField("name", "is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subcategories.get(id)
	if !ok {
		return models.Subcategory{}, nil, notFound(models.EntitySubcategory, id)
	}
	if patch.CategoryID != nil && *patch.CategoryID != sub.CategoryID {
		if _, ok := c.categories.get(*patch.CategoryID); !ok {
			return models.Subcategory{}, nil, invalidField("category_id", "references an unknown category")
		}
		if err := c.guardDelete(models.EntitySubcategory, id); err != nil {
			return models.Subcategory{}, nil, err
		}
		sub.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		sub.Name = *patch.Name
	}
	now := c.now()
	sub.UpdatedAt = now

	return *sub, models.Events{c.event(models.EventTypeSubcategoryUpdated, models.EntitySubcategory, id, *sub, now)}, nil
}

// DeleteSubcategory removes a subcategory that no product references
func (c *Catalog) DeleteSubcategory(id string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subcategories.get(id); !ok {
		return nil, notFound(models.EntitySubcategory, id)
	}
	if err := c.guardDelete(models.EntitySubcategory, id); err != nil {
		return nil, err
	}
	c.subcategories.remove(id)

	return models.Events{c.event(models.EventTypeSubcategoryDeleted, models.EntitySubcategory, id, nil, c.now())}, nil
}

// AddBrand creates a brand
func (c *Catalog) AddBrand(in BrandInput) (models.Brand, models.Events, error) {
	if verr := check(in); verr != nil {
		return models.Brand{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	brand := &models.Brand{ID: c.newID(), Name: in.Name, CreatedAt: now, UpdatedAt: now}
	c.brands.add(brand.ID, brand)

	return *brand, models.Events{c.event(models.EventTypeBrandCreated, models.EntityBrand, brand.ID, *brand, now)}, nil
}

// UpdateBrand renames a brand
func (c *Catalog) UpdateBrand(id string, patch NamePatch) (models.Brand, models.Events, error) {
	if patch.Name != nil && *patch.Name == "" {
		return models.Brand{}, nil, invalidField("name", "is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	brand, ok := c.brands.get(id)
	if !ok {
		return models.Brand{}, nil, notFound(models.EntityBrand, id)
	}
	if patch.Name != nil {
		brand.Name = *patch.Name
	}
	now := c.now()
	brand.UpdatedAt = now

	return *brand, models.Events{c.event(models.EventTypeBrandUpdated, models.EntityBrand, id, *brand, now)}, nil
}

// DeleteBrand removes a brand that no product references
func (c *Catalog) DeleteBrand(id string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.brands.get(id); !ok {
		return nil, notFound(models.EntityBrand, id)
	}
	if err := c.guardDelete(models.EntityBrand, id); err != nil {
		return nil, err
	}
	c.brands.remove(id)

	return models.Events{c.event(models.EventTypeBrandDeleted, models.EntityBrand, id, nil, c.now())}, nil
}

// Category returns a category by id
func (c *Catalog) Category(id string) (models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories.get(id)
	if !ok {
		return models.Category{}, notFound(models.EntityCategory, id)
	}
	return *cat, nil
}

// Categories lists categories in creation order
func (c *Catalog) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Category, 0, c.categories.len())
	c.categories.each(func(cat *models.Category) { out = append(out, *cat) })
	return out
}

// Subcategory returns a subcategory by id
func (c *Catalog) Subcategory(id string) (models.Subcategory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sub, ok := c.subcategories.get(id)
	if !ok {
		return models.Subcategory{}, notFound(models.EntitySubcategory, id)
	}
	return *sub, nil
}

// Subcategories lists subcategories, restricted to one category when categoryID is set
func (c *Catalog) Subcategories(categoryID string) []models.Subcategory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Subcategory, 0)
	c.subcategories.each(func(s *models.Subcategory) {
		if categoryID == "" || s.CategoryID == categoryID {
			out = append(out, *s)
		}
	})
	return out
}

// Brand returns a brand by id
func (c *Catalog) Brand(id string) (models.Brand, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	brand, ok := c.brands.get(id)
	if !ok {
		return models.Brand{}, notFound(models.EntityBrand, id)
	}
	return *brand, nil
}

// Brands lists brands in creation order
func (c *Catalog) Brands() []models.Brand {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Brand, 0, c.brands.len())
	c.brands.each(func(b *models.Brand) { out = append(out, *b) })
	return out
}
