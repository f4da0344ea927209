package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item statuses. Only available items show up in listings.
const (
	ItemStatusAvailable = "available"
	ItemStatusSold      = "sold"
)

// Item is a marketplace listing.
type Item struct {
	ID          string
	SellerID    string
	Title       string
	Description string
	Price       decimal.Decimal
	Condition   string
	Status      string
	Images      []string // image URLs, first one is shown in chat
	CreatedAt   time.Time
}

// User is a marketplace account. Buyers are matched by routing address and
// may not have an account at all.
type User struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderAccepted  OrderStatus = "accepted"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order records one purchase placed through chat.
type Order struct {
	ID            string
	ItemID        string
	BuyerUserID   string // empty when the buyer has no account
	SellerUserID  string
	Quantity      int // always >= 1
	Price         decimal.Decimal
	Status        OrderStatus
	ThreadAddress string // buyer routing address the order was placed from
	CreatedAt     time.Time
}

// ShortCode is the human-typeable order code shown in chat: "ORD-" plus the
// first 8 hex characters of the id. Collisions across the truncation are an
// accepted usability trade-off; the full id stays canonical in the store.
func (o Order) ShortCode() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "ORD-" + id
}

// ShopContext is the resolved shop/seller identity for the channel that
// received a message. Absence (unmapped channel) is a valid state: routing
// degrades to the shop-less fallback path instead of failing.
type ShopContext struct {
	ShopID        string
	SellerUserID  string
	SellerAddress string // seller routing address; may be empty
	ChannelID     string
}
