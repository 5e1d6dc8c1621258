package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusConfirmed  Status = "Confirmed"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range allStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "Credit Card"
	PaymentDebitCard      PaymentMethod = "Debit Card"
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentUPI            PaymentMethod = "UPI"
)

// ParsePaymentMethod defaults to cash on delivery when s is empty.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PaymentCashOnDelivery, true
	}
	for _, m := range []PaymentMethod{PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentCashOnDelivery, PaymentUPI} {
		if strings.EqualFold(s, string(m)) {
			return m, true
		}
	}
	return "", false
}

// PaymentStatus is owned by the payment flow; orders only carry it.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// DefaultCountry fills a shipping address that omits the country.
const DefaultCountry = "India"

// Address is the shipping destination.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Party is the display view of a customer or seller resolved on read.
type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// Item is a line of an order. Product name, seller and price are copied at
// placement time so later product edits never rewrite history.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Seller      Party     `json:"seller"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	LineTotal   float64   `json:"line_total"`
}

// Order is the aggregate root of the order engine.
type Order struct {
	ID                uuid.UUID     `json:"id"`
	OrderNumber       string        `json:"order_number"`
	Customer          Party         `json:"customer"`
	Items             []*Item       `json:"items"`
	ShippingAddress   Address       `json:"shipping_address"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	Status            Status        `json:"status"`
	TotalAmount       float64       `json:"total_amount"`
	DiscountAmount    float64       `json:"discount_amount"`
	TaxAmount         float64       `json:"tax_amount"`
	ShippingCost      float64       `json:"shipping_cost"`
	FinalAmount       float64       `json:"final_amount"`
	OrderNotes        string        `json:"order_notes"`
	TrackingNumber    string        `json:"tracking_number"`
	EstimatedDelivery time.Time     `json:"estimated_delivery"`
	DeliveredAt       *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason      string        `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// HasSeller reports whether any line belongs to sellerID.
func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.Seller.ID.String() == sellerID {
			return true
		}
	}
	return false
}

// ItemsForSeller returns a copy of o holding only sellerID's lines. Order
// level totals are left untouched.
func (o *Order) ItemsForSeller(sellerID string) *Order {
	cp := *o
	cp.Items = make([]*Item, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Seller.ID.String() == sellerID {
			cp.Items = append(cp.Items, it)
		}
	}
	return &cp
}

// ItemRequest is one requested line.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is the payload for creating an order.
type PlaceOrderRequest struct {
	Items           []ItemRequest `json:"items"`
	ShippingAddress *Address      `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method"`
	OrderNotes      string        `json:"order_notes"`
}

// UpdateStatusRequest is the payload for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CancelRequest is the payload for cancelling an order.
type CancelRequest struct {
	CancelReason string `json:"cancel_reason"`
}

// ListFilter scopes a listing. SellerID restricts both the orders returned
// and the lines shown within them.
type ListFilter struct {
	CustomerID string
	SellerID   string
	Status     Status
}

// Page is one page of a listing.
type Page struct {
	Orders      []*Order `json:"orders"`
	TotalOrders int      `json:"total_orders"`
	CurrentPage int      `json:"current_page"`
	TotalPages  int      `json:"total_pages"`
}

// StatusChange is the write applied by a transition. Nil fields keep their
// stored values.
type StatusChange struct {
	Status       Status
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
	// UpdatedAt is the revision stamp of the change. It always moves forward.
	UpdatedAt time.Time
}

// Rollup is the raw aggregate returned by the store.
type Rollup struct {
	TotalOrders   int
	TotalRevenue  float64
	AvgOrderValue float64
	ByStatus      map[Status]int
	SellerRevenue *float64
}

// Analytics summarises orders. When scoped to a seller, TotalRevenue and
// AvgOrderValue cover whole orders while SellerRevenue covers only that
// seller's lines.
type Analytics struct {
	TotalOrders     int            `json:"total_orders"`
	TotalRevenue    float64        `json:"total_revenue"`
	AvgOrderValue   float64        `json:"avg_order_value"`
	StatusBreakdown map[Status]int `json:"status_breakdown"`
	SellerRevenue   *float64       `json:"seller_revenue,omitempty"`
}
