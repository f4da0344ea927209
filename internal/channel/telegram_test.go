package channel

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"edobot/internal/domain"
)

type recordBus struct {
	published []domain.Delivery
}

func (b *recordBus) Publish(d domain.Delivery)         { b.published = append(b.published, d) }
func (b *recordBus) Subscribe() <-chan domain.Delivery { return nil }
func (b *recordBus) Close()                            {}

func TestTelegramAllowFilter(t *testing.T) {
	tg := NewTelegram(TelegramConfig{
		Token:     "t",
		AllowFrom: []string{"100", " 200 ", "garbage"},
		Logger:    discardLogger(),
	})

	if !tg.allowed(100) || !tg.allowed(200) {
		t.Fatal("listed chat ids must be allowed")
	}
	if tg.allowed(300) {
		t.Fatal("unlisted chat id must be rejected")
	}

	open := NewTelegram(TelegramConfig{Token: "t", Logger: discardLogger()})
	if !open.allowed(12345) {
		t.Fatal("empty allow list means allow all")
	}
}

func TestTelegramUpdateBecomesDelivery(t *testing.T) {
	tg := NewTelegram(TelegramConfig{Token: "t", Logger: discardLogger()})
	bus := &recordBus{}

	tg.handleUpdate(tgbotapi.Update{
		UpdateID: 77,
		Message: &tgbotapi.Message{
			Text: "list",
			Date: 1700000000,
			Chat: &tgbotapi.Chat{ID: 4242},
		},
	}, bus)

	if len(bus.published) != 1 {
		t.Fatalf("published %d deliveries, want 1", len(bus.published))
	}
	d := bus.published[0]
	if d.Transport != domain.TransportTelegram {
		t.Fatalf("transport = %q", d.Transport)
	}
	m := d.Messages[0]
	if m.MessageID != "telegram:77" {
		t.Fatalf("message id = %q", m.MessageID)
	}
	if m.From != "4242" || m.ChannelID != domain.TransportTelegram || m.Text != "list" {
		t.Fatalf("message = %+v", m)
	}
	if m.ReceivedAt.Unix() != 1700000000 {
		t.Fatalf("received at = %v", m.ReceivedAt)
	}
}

func TestTelegramUpdateFiltered(t *testing.T) {
	tg := NewTelegram(TelegramConfig{Token: "t", AllowFrom: []string{"1"}, Logger: discardLogger()})
	bus := &recordBus{}

	tg.handleUpdate(tgbotapi.Update{
		UpdateID: 1,
		Message:  &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: 999}},
	}, bus)

	if len(bus.published) != 0 {
		t.Fatal("disallowed chat must not publish")
	}
}
