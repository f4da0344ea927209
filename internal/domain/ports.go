package domain

import "context"

// Message log directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// MessageLog is one best-effort audit entry for an inbound or outbound message.
type MessageLog struct {
	Direction string
	From      string
	To        string
	Payload   string
	UserID    string
	ShopID    string
	OrderID   string
}

// Store is the marketplace persistence port. Lookups return (nil, nil) when
// the row does not exist; a non-nil error always means the call itself
// failed. Handlers branch on that distinction instead of guessing.
type Store interface {
	ListAvailableItems(ctx context.Context, sellerID string, page, pageSize int) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	FindUserByAddress(ctx context.Context, address string) (*User, error)
	CreateOrder(ctx context.Context, order Order) error
	FindShopByChannel(ctx context.Context, channelID string) (*ShopContext, error)

	// MarkProcessed claims messageID for processing. first is false when the
	// id was already claimed, which is how duplicate webhook deliveries are
	// detected across restarts.
	MarkProcessed(ctx context.Context, messageID string) (first bool, err error)

	// LogMessage is best-effort: implementations log failures themselves and
	// must never block or fail routing.
	LogMessage(ctx context.Context, entry MessageLog)
}

// Messenger sends one text message to a routing address.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}

// MessengerResolver picks the messenger for a delivery's transport.
type MessengerResolver interface {
	For(transport string) Messenger
}

// DeliveryBus queues parsed deliveries between the webhook surface and the
// router loop, so the webhook can acknowledge before handlers run.
type DeliveryBus interface {
	Publish(d Delivery)
	Subscribe() <-chan Delivery
	Close()
}
