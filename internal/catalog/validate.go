package catalog

import (
	"errors"
	"reflect"
	"strings"

	"catalog-admin/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProductInput is the payload of AddProduct
type ProductInput struct {
	Name           string            `json:"name" validate:"required"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	Image          string            `json:"image"`
	Inventory      int               `json:"inventory" validate:"gte=0"`
	CategoryID     string            `json:"category_id" validate:"required"`
	SubcategoryID  string            `json:"subcategory_id"`
	BrandID        string            `json:"brand_id" validate:"required"`
	Specifications map[string]string `json:"specifications"`
}

// ProductPatch carries the fields of UpdateProduct; nil fields are left untouched
type ProductPatch struct {
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	Price          *decimal.Decimal   `json:"price"`
	Image          *string            `json:"image"`
	Inventory      *int               `json:"inventory"`
	CategoryID     *string            `json:"category_id"`
	SubcategoryID  *string            `json:"subcategory_id"`
	BrandID        *string            `json:"brand_id"`
	Specifications *map[string]string `json:"specifications"`
}

// CategoryInput is the payload of AddCategory and AddBrand
type CategoryInput struct {
	Name string `json:"name" validate:"required"`
}

// NamePatch renames a category or brand
type NamePatch struct {
	Name *string `json:"name"`
}

// BrandInput is the payload of AddBrand
type BrandInput = CategoryInput

// SubcategoryInput is the payload of AddSubcategory
type SubcategoryInput struct {
	Name       string `json:"name" validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
}

// SubcategoryPatch carries the fields of UpdateSubcategory
type SubcategoryPatch struct {
	Name       *string `json:"name"`
	CategoryID *string `json:"category_id"`
}

// OrderItemInput is one requested line of a new order.
// Empty name or nil price are filled from the current product.
type OrderItemInput struct {
	ProductID   string           `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	Price       *decimal.Decimal `json:"price"`
}

// OrderInput is the payload of AddOrder
type OrderInput struct {
	UserID          string             `json:"user_id" validate:"required"`
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderItemInput   `json:"items" validate:"required,min=1,dive"`
	Total           *decimal.Decimal   `json:"total"`
	Status          models.OrderStatus `json:"status"`
}

// UserInput is the payload of AddUser
type UserInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
}

// UserPatch carries the fields of UpdateUser
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
}

// ActivityInput is the payload of LogActivity
type ActivityInput struct {
	UserID   string                `json:"user_id" validate:"required"`
	Username string                `json:"username"`
	Action   models.ActivityAction `json:"action" validate:"required"`
	Details  string                `json:"details"`
}

// check runs struct tag validation and converts failures into a ValidationError
func check(v any) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidField("input", err.Error())
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Reason: reason(fe)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " entries"
	}
	return "failed " + fe.Tag() + " check"
}

// merge appends the fields of other into v, allocating v when needed
func merge(v *ValidationError, other *ValidationError) *ValidationError {
	if other == nil {
		return v
	}
	if v == nil {
		return other
	}
	v.Fields = append(v.Fields, other.Fields...)
	return v
}

// asError avoids returning a typed nil inside an error interface
func asError(v *ValidationError) error {
	if v == nil {
		return nil
	}
	return v
}
