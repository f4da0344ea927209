package domain

import "time"

// Transport names used by deliveries and the messenger mux.
const (
	TransportWhatsApp = "whatsapp"
	TransportTwilio   = "twilio"
	TransportTelegram = "telegram"
)

// InboundMessage is one normalized user message extracted from a webhook
// delivery. Immutable once parsed.
type InboundMessage struct {
	MessageID  string    // platform-assigned id; empty for adapters that don't provide one
	From       string    // sender routing address (phone number, chat id)
	ChannelID  string    // receiving channel id, maps 1:1 to a shop
	Type       string    // platform message type ("text", "image", ...)
	Text       string    // empty for non-text messages
	ReceivedAt time.Time
}

// Delivery is one webhook call: an ordered batch of messages from a single
// transport. Messages keep their arrival order.
type Delivery struct {
	Transport  string
	Messages   []InboundMessage
	ReceivedAt time.Time
}

// OutboundReply is a reply composed by a handler. It is ephemeral: the store
// keeps a best-effort log of it, but routing never depends on that log.
type OutboundReply struct {
	To        string
	Text      string
	EmittedAt time.Time
}
