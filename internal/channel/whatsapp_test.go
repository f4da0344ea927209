package channel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"edobot/internal/config"
	"edobot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWhatsAppSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		rw.WriteHeader(http.StatusOK)
		io.WriteString(rw, `{"messages":[{"id":"wamid.OUT"}]}`)
	}))
	defer ts.Close()

	w := NewWhatsApp(config.WhatsAppConfig{
		AccessToken:   "test-token",
		PhoneNumberID: "12345",
		APIBase:       ts.URL,
	}, discardLogger())

	if err := w.SendText(context.Background(), "+919812345678", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if gotPath != "/12345/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotPayload["to"] != "+919812345678" || gotPayload["messaging_product"] != "whatsapp" {
		t.Fatalf("payload = %v", gotPayload)
	}
	text, _ := gotPayload["text"].(map[string]any)
	if text["body"] != "hello" {
		t.Fatalf("text = %v", text)
	}
}

func TestWhatsAppSendText_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
		io.WriteString(rw, `{"error":{"message":"bad token"}}`)
	}))
	defer ts.Close()

	w := NewWhatsApp(config.WhatsAppConfig{APIBase: ts.URL, PhoneNumberID: "12345"}, discardLogger())
	err := w.SendText(context.Background(), "+1", "hi")
	if err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestWhatsAppSendText_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	w := NewWhatsApp(config.WhatsAppConfig{APIBase: ts.URL, PhoneNumberID: "12345"}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.SendText(ctx, "+1", "hi"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

type stubMessenger struct{ name string }

func (s *stubMessenger) SendText(ctx context.Context, to, text string) error { return nil }

func TestMuxFallsBackToDefault(t *testing.T) {
	def := &stubMessenger{name: "whatsapp"}
	tg := &stubMessenger{name: "telegram"}

	mux := NewMux(def)
	mux.Register(domain.TransportTelegram, tg)

	if got := mux.For(domain.TransportTelegram); got != domain.Messenger(tg) {
		t.Fatal("registered transport should resolve its own messenger")
	}
	if got := mux.For(domain.TransportWhatsApp); got != domain.Messenger(def) {
		t.Fatal("unregistered transport should fall back to default")
	}
	if got := mux.For(domain.TransportTwilio); got != domain.Messenger(def) {
		t.Fatal("adapter traffic replies through the default messenger")
	}
}
