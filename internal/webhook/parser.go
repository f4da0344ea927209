package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"edobot/internal/domain"
)

// WhatsApp Cloud API webhook payload. Only the fields the relay reads.

type waPayload struct {
	Object string    `json:"object"`
	Entry  []waEntry `json:"entry"`
}

type waEntry struct {
	ID      string     `json:"id"`
	Changes []waChange `json:"changes"`
}

type waChange struct {
	Field string  `json:"field"`
	Value waValue `json:"value"`
}

type waValue struct {
	MessagingProduct string      `json:"messaging_product"`
	Metadata         waMetadata  `json:"metadata"`
	Messages         []waMessage `json:"messages"`
}

type waMetadata struct {
	PhoneNumberID string `json:"phone_number_id"`
}

type waMessage struct {
	From      string  `json:"from"`
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Text      *waText `json:"text,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

// ParseDelivery flattens a Cloud API webhook body (entries → changes →
// messages) into one normalized delivery, preserving arrival order.
//
// Non-text messages are kept with empty text rather than dropped, so the
// router can still log them. Missing fields degrade to empty values: one
// malformed message never blocks its siblings. Only a body that fails to
// decode at all is an error.
func ParseDelivery(body []byte, now time.Time) (domain.Delivery, error) {
	var p waPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Delivery{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	d := domain.Delivery{Transport: domain.TransportWhatsApp, ReceivedAt: now}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			channelID := change.Value.Metadata.PhoneNumberID
			for _, msg := range change.Value.Messages {
				m := domain.InboundMessage{
					MessageID:  msg.ID,
					From:       msg.From,
					ChannelID:  channelID,
					Type:       msg.Type,
					ReceivedAt: parseUnixSeconds(msg.Timestamp, now),
				}
				if msg.Type == "text" && msg.Text != nil {
					m.Text = msg.Text.Body
				}
				d.Messages = append(d.Messages, m)
			}
		}
	}
	return d, nil
}

// parseUnixSeconds reads the platform's stringly unix timestamp, falling back
// to the delivery arrival time when it is missing or garbage.
func parseUnixSeconds(s string, fallback time.Time) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return fallback
	}
	return time.Unix(sec, 0)
}
