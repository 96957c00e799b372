package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID             string            `db:"id" json:"id"`
	Name           string            `db:"name" json:"name"`
	Description    string            `db:"description" json:"description"`
	Price          decimal.Decimal   `db:"price" json:"price"`
	Image          string            `db:"image" json:"image"`
	Inventory      int               `db:"inventory" json:"inventory"`
	CategoryID     string            `db:"category_id" json:"category_id"`
	SubcategoryID  string            `db:"subcategory_id" json:"subcategory_id,omitempty"`
	BrandID        string            `db:"brand_id" json:"brand_id"`
	Specifications map[string]string `db:"-" json:"specifications,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the product
func (p Product) Clone() Product {
	if p.Specifications != nil {
		specs := make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			specs[k] = v
		}
		p.Specifications = specs
	}
	return p
}

// Category groups subcategories and products
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subcategory belongs to exactly one category
type Subcategory struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CategoryID string    `db:"category_id" json:"category_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Brand represents a product manufacturer
type Brand struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a snapshot of a product line at order time.
// Name and price are never rewritten when the product changes later.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal returns price × quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order
type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	CustomerEmail   string          `db:"customer_email" json:"customer_email"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	Items           []OrderItem     `db:"-" json:"items"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Status          OrderStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the order
func (o Order) Clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}

// User is a storefront customer or staff account
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	LastLogin time.Time `db:"last_login" json:"last_login"`
}

// ActivityLog is an immutable audit record of a user action
type ActivityLog struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Username  string         `db:"username" json:"username"`
	Action    ActivityAction `db:"action" json:"action"`
	Details   string         `db:"details" json:"details"`
	Timestamp time.Time      `db:"logged_at" json:"timestamp"`
}

// InventoryAlert is derived from a product at or below the low-stock threshold
type InventoryAlert struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Inventory   int       `json:"inventory"`
	Threshold   int       `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderStatus is the fulfillment state of an order
type OrderStatus string

// Order statuses, in forward order
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// Rank returns the position of s in the fulfillment sequence, -1 if unknown
func (s OrderStatus) Rank() int {
	if r, ok := orderStatusRank[s]; ok {
		return r
	}
	return -1
}

// Fulfilled reports whether stock has already left the warehouse
func (s OrderStatus) Fulfilled() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered
}

// ActivityAction is the kind of user action recorded in the activity log
type ActivityAction string

// Activity actions
const (
	ActionLogin          ActivityAction = "login"
	ActionLogout         ActivityAction = "logout"
	ActionViewProduct    ActivityAction = "view_product"
	ActionAddToCart      ActivityAction = "add_to_cart"
	ActionRemoveFromCart ActivityAction = "remove_from_cart"
	ActionPurchase       ActivityAction = "purchase"
)

// Valid reports whether a is a known action
func (a ActivityAction) Valid() bool {
	switch a {
	case ActionLogin, ActionLogout, ActionViewProduct, ActionAddToCart, ActionRemoveFromCart, ActionPurchase:
		return true
	}
	return false
}

// DashboardStats summarises the catalog for the dashboard landing page
type DashboardStats struct {
	TotalProducts    int             `json:"total_products"`
	TotalOrders      int             `json:"total_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	PendingOrders    int             `json:"pending_orders"`
	LowStockProducts int             `json:"low_stock_products"`
	TotalCategories  int             `json:"total_categories"`
	TotalBrands      int             `json:"total_brands"`
	TotalUsers       int             `json:"total_users"`
}
