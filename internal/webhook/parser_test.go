package webhook

import (
	"testing"
	"time"

	"edobot/internal/domain"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [
    {
      "id": "entry-1",
      "changes": [
        {
          "field": "messages",
          "value": {
            "messaging_product": "whatsapp",
            "metadata": {"display_phone_number": "15550001111", "phone_number_id": "12345"},
            "messages": [
              {
                "from": "+919812345678",
                "id": "wamid.AAA",
                "timestamp": "1700000000",
                "type": "text",
                "text": {"body": "view 42"}
              },
              {
                "from": "+919812345678",
                "id": "wamid.BBB",
                "timestamp": "1700000010",
                "type": "image"
              }
            ]
          }
        }
      ]
    }
  ]
}`

func TestParseDelivery_FlattensEntries(t *testing.T) {
	now := time.Now()
	d, err := ParseDelivery([]byte(samplePayload), now)
	if err != nil {
		t.Fatalf("ParseDelivery: %v", err)
	}

	if d.Transport != domain.TransportWhatsApp {
		t.Fatalf("transport = %q", d.Transport)
	}
	if len(d.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(d.Messages))
	}

	first := d.Messages[0]
	if first.MessageID != "wamid.AAA" {
		t.Fatalf("message id = %q", first.MessageID)
	}
	if first.From != "+919812345678" {
		t.Fatalf("from = %q", first.From)
	}
	if first.ChannelID != "12345" {
		t.Fatalf("channel id = %q", first.ChannelID)
	}
	if first.Text != "view 42" {
		t.Fatalf("text = %q", first.Text)
	}
	if got := first.ReceivedAt.Unix(); got != 1700000000 {
		t.Fatalf("received at = %d", got)
	}
}

func TestParseDelivery_NonTextKeptWithEmptyText(t *testing.T) {
	d, err := ParseDelivery([]byte(samplePayload), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	img := d.Messages[1]
	if img.Type != "image" {
		t.Fatalf("type = %q", img.Type)
	}
	if img.Text != "" {
		t.Fatalf("non-text message should carry empty text, got %q", img.Text)
	}
}

func TestParseDelivery_EmptyPayload(t *testing.T) {
	d, err := ParseDelivery([]byte(`{"object":"whatsapp_business_account","entry":[]}`), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Messages) != 0 {
		t.Fatalf("got %d messages, want 0", len(d.Messages))
	}
}

func TestParseDelivery_MalformedJSON(t *testing.T) {
	if _, err := ParseDelivery([]byte(`{nope`), time.Now()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseDelivery_BadTimestampFallsBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"1"},"messages":[{"from":"+1","id":"m1","timestamp":"soon","type":"text","text":{"body":"hi"}}]}}]}]}`
	d, err := ParseDelivery([]byte(payload), now)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Messages[0].ReceivedAt.Equal(now) {
		t.Fatalf("received at = %v, want fallback %v", d.Messages[0].ReceivedAt, now)
	}
}
