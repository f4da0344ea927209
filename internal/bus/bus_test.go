package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"edobot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(10, discardLogger())
	defer b.Close()

	want := domain.Delivery{
		Transport: domain.TransportWhatsApp,
		Messages:  []domain.InboundMessage{{MessageID: "m1", Text: "hi"}},
	}
	b.Publish(want)

	select {
	case got := <-b.Subscribe():
		if got.Messages[0].MessageID != "m1" {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("delivery never arrived")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	b := New(10, discardLogger())
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Publish(domain.Delivery{Messages: []domain.InboundMessage{{MessageID: string(rune('a' + i))}}})
	}

	inbound := b.Subscribe()
	for i := 0; i < 5; i++ {
		d := <-inbound
		if want := string(rune('a' + i)); d.Messages[0].MessageID != want {
			t.Fatalf("delivery %d = %q, want %q", i, d.Messages[0].MessageID, want)
		}
	}
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := New(10, discardLogger())
	b.Close()

	// Must not panic on a closed channel.
	b.Publish(domain.Delivery{Messages: []domain.InboundMessage{{MessageID: "late"}}})

	if _, ok := <-b.Subscribe(); ok {
		t.Fatal("closed bus should deliver nothing")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(10, discardLogger())
	b.Close()
	b.Close()
}

func TestSubscribeClosesWithBus(t *testing.T) {
	b := New(1, discardLogger())
	inbound := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-inbound:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}
}
