package domain

import "time"

// Entities referenced by a Review. The review service keeps read models of
// them in its own store; they are owned and written by the order and catalog
// services.

// OrderState is the fulfillment state of an order.
type OrderState string

const (
	OrderStatePendingPayment OrderState = "PENDING_PAYMENT"
	OrderStatePaid           OrderState = "PAID"
	OrderStateProcessing     OrderState = "PROCESSING"
	OrderStateShipped        OrderState = "SHIPPED"
	OrderStateDelivered      OrderState = "DELIVERED"
	OrderStateCancelled      OrderState = "CANCELLED"
)

// Order is the purchase that licenses a review. A review may only be
// created by the order's customer, and only once the order is delivered.
type Order struct {
	ID         string
	CustomerID string
	State      OrderState
	Total      float64
	PlacedAt   time.Time
}

// Delivered reports whether the order has reached its terminal
// fulfillment state.
func (o *Order) Delivered() bool {
	return o.State == OrderStateDelivered
}

// ProductVariant is the catalog item being reviewed.
type ProductVariant struct {
	ID        string
	ProductID string
	SKU       string
	Name      string
	SellerID  string
}

// Seller is the merchant being rated.
type Seller struct {
	ID   string
	Name string
}

// Customer is the author of a review.
type Customer struct {
	ID           string
	FirstName    string
	LastName     string
	EmailAddress string
}
