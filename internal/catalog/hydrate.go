package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"catalog-admin/internal/models"
)

// ReplaceCollection bulk-loads one collection from an authoritative remote
// source. Referential checks are skipped but every record must satisfy the
// field rules of its entity; alerts are re-derived when products or alerts
// are replaced. records must be the slice type of the entity (for example
// []models.Product).
func (c *Catalog) ReplaceCollection(entity models.EntityType, records any) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		n   int
		err error
	)
	switch entity {
	case models.EntityProduct:
		n, err = replaceTyped(c.products, records, func(p *models.Product) string { return p.ID },
			func(p models.Product) models.Product { return p.Clone() }, checkProductRecord)
	case models.EntityCategory:
		n, err = replaceTyped(c.categories, records, func(v *models.Category) string { return v.ID }, nil, nil)
	case models.EntitySubcategory:
		n, err = replaceTyped(c.subcategories, records, func(v *models.Subcategory) string { return v.ID }, nil, nil)
	case models.EntityBrand:
		n, err = replaceTyped(c.brands, records, func(v *models.Brand) string { return v.ID }, nil, nil)
	case models.EntityOrder:
		n, err = replaceTyped(c.orders, records, func(o *models.Order) string { return o.ID },
			func(o models.Order) models.Order { return o.Clone() }, checkOrderRecord)
	case models.EntityUser:
		n, err = replaceTyped(c.users, records, func(u *models.User) string { return u.ID }, nil, nil)
	case models.EntityActivityLog:
		if logs, ok := records.([]models.ActivityLog); ok {
			// checked before sorting so indexes match the caller's slice
			var verr *ValidationError
			for i := range logs {
				verr = merge(verr, checkActivityRecord(i, &logs[i]))
			}
			if verr != nil {
				return nil, verr
			}
			sorted := append([]models.ActivityLog(nil), logs...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
			records = sorted
		}
		n, err = replaceTyped(c.activity, records, func(l *models.ActivityLog) string { return l.ID }, nil, nil)
	case models.EntityAlert:
		n, err = c.replaceAlerts(records)
	default:
		return nil, invalidField("entity", fmt.Sprintf("unknown collection %q", entity))
	}
	if err != nil {
		return nil, err
	}

	now := c.now()
	events := models.Events{c.event(models.EventTypeCollectionReplaced, entity, "", models.CollectionReplaced{Count: n, Records: records}, now)}
	if entity == models.EntityProduct || entity == models.EntityAlert {
		events = c.appendAlertEvents(events, now)
	}
	return events, nil
}

// replaceTyped swaps the contents of col for records. Nothing is replaced
// unless every record has a unique id and passes fields (when set).
func replaceTyped[T any](
	col *collection[T],
	records any,
	id func(*T) string,
	clone func(T) T,
	fields func(i int, v *T) *ValidationError,
) (int, error) {
	typed, ok := records.([]T)
	if !ok {
		return 0, invalidField("records", fmt.Sprintf("expected %T, got %T", typed, records))
	}

	seen := make(map[string]bool, len(typed))
	var verr *ValidationError
	for i := range typed {
		rid := id(&typed[i])
		switch {
		case rid == "":
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].id", i), "is required"))
		case seen[rid]:
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].id", i), "is duplicated"))
		}
		seen[rid] = true
		if fields != nil {
			verr = merge(verr, fields(i, &typed[i]))
		}
	}
	if verr != nil {
		return 0, verr
	}

	col.reset()
	for _, r := range typed {
		if clone != nil {
			r = clone(r)
		}
		v := r
		col.add(id(&v), &v)
	}
	return len(typed), nil
}

func (c *Catalog) replaceAlerts(records any) (int, error) {
	alerts, ok := records.([]models.InventoryAlert)
	if !ok {
		return 0, invalidField("records", fmt.Sprintf("expected []models.InventoryAlert, got %T", records))
	}
	seen := make(map[string]bool, len(alerts))
	var verr *ValidationError
	for i, a := range alerts {
		switch {
		case a.ProductID == "":
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].product_id", i), "is required"))
		case seen[a.ProductID]:
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].product_id", i), "is duplicated"))
		}
		seen[a.ProductID] = true
	}
	if verr != nil {
		return 0, verr
	}
	c.alerts = append([]models.InventoryAlert(nil), alerts...)
	return len(alerts), nil
}

func checkProductRecord(i int, p *models.Product) *ValidationError {
	var verr *ValidationError
	if p.Name == "" {
		verr = merge(verr, invalidField(fmt.Sprintf("records[%d].name", i), "is required"))
	}
	if !p.Price.IsPositive() {
		verr = merge(verr, invalidField(fmt.Sprintf("records[%d].price", i), "must be greater than zero"))
	}
	if p.Inventory < 0 {
		verr = merge(verr, invalidField(fmt.Sprintf("records[%d].inventory", i), "must be at least 0"))
	}
	return verr
}

func checkOrderRecord(i int, o *models.Order) *ValidationError {
	var verr *ValidationError
	if !o.Status.Valid() {
		verr = merge(verr, invalidField(fmt.Sprintf("records[%d].status", i), "must be one of pending, processing, shipped, delivered"))
	}
	if len(o.Items) == 0 {
		verr = merge(verr, invalidField(fmt.Sprintf("records[%d].items", i), "must contain at least 1 entries"))
	}
	for j, item := range o.Items {
		if item.Quantity <= 0 {
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].items[%d].quantity", i, j), "must be greater than 0"))
		}
		if item.Price.IsNegative() {
			verr = merge(verr, invalidField(fmt.Sprintf("records[%d].items[%d].price", i, j), "must not be negative"))
		}
	}
	return verr
}

func checkActivityRecord(i int, l *models.ActivityLog) *ValidationError {
	if !l.Action.Valid() {
		return invalidField(fmt.Sprintf("records[%d].action", i), "is not a known activity")
	}
	return nil
}

// DecodeCollection parses a JSON array into the slice type expected by ReplaceCollection
func DecodeCollection(entity models.EntityType, raw []byte) (any, error) {
	switch entity {
	case models.EntityProduct:
		return decodeSlice[models.Product](raw)
	case models.EntityCategory:
		return decodeSlice[models.Category](raw)
	case models.EntitySubcategory:
		return decodeSlice[models.Subcategory](raw)
	case models.EntityBrand:
		return decodeSlice[models.Brand](raw)
	case models.EntityOrder:
		return decodeSlice[models.Order](raw)
	case models.EntityUser:
		return decodeSlice[models.User](raw)
	case models.EntityActivityLog:
		return decodeSlice[models.ActivityLog](raw)
	case models.EntityAlert:
		return decodeSlice[models.InventoryAlert](raw)
	}
	return nil, invalidField("entity", fmt.Sprintf("unknown collection %q", entity))
}

func decodeSlice[T any](raw []byte) (any, error) {
	records := []T{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, invalidField("records", err.Error())
	}
	return records, nil
}
