// Package webhook is the inbound surface: it authenticates webhook deliveries
// from the messaging platform, normalizes them, and queues them for routing.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"edobot/internal/config"
	"edobot/internal/domain"
	"edobot/internal/metrics"
)

const maxBodySize = 1 << 20 // 1MB

// Server accepts WhatsApp Cloud API webhooks (and the Twilio adapter form)
// and publishes normalized deliveries to the bus. The HTTP response
// acknowledges the delivery, never individual messages: handler outcomes are
// observable only through logs and replies.
type Server struct {
	cfg    config.Config
	bus    domain.DeliveryBus
	logger *slog.Logger
	server *http.Server
}

func NewServer(cfg config.Config, bus domain.DeliveryBus, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		bus:    bus,
		logger: logger,
	}
}

// routes builds the mux. Factored out so tests can drive the handlers
// through httptest without binding a port.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	webhookPath := s.cfg.WhatsApp.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	mux.HandleFunc("GET "+webhookPath, s.handleVerification)
	mux.HandleFunc("POST "+webhookPath, s.handleDelivery)

	if s.cfg.Twilio.Enabled {
		twilioPath := s.cfg.Twilio.WebhookPath
		if twilioPath == "" {
			twilioPath = "/webhook/twilio"
		}
		mux.HandleFunc("POST "+twilioPath, s.handleTwilio)
		s.logger.Info("twilio adapter enabled", "path", twilioPath)
	}

	if s.cfg.Metrics.Enabled {
		endpoint := s.cfg.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.HandleFunc("GET "+endpoint, metrics.Collector.Handler())
	}
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("webhook server starting", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// handleVerification answers the platform's subscription handshake: echo the
// challenge when the verify token matches, reject otherwise.
func (s *Server) handleVerification(rw http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == s.cfg.WhatsApp.VerifyToken {
		s.logger.Info("webhook verified")
		rw.WriteHeader(http.StatusOK)
		io.WriteString(rw, challenge)
		return
	}

	s.logger.Warn("webhook verification failed", "mode", mode)
	http.Error(rw, "Forbidden", http.StatusForbidden)
}

// handleDelivery authenticates and parses one delivery, queues it, and acks.
// The signature runs over the raw bytes, before any JSON decoding.
func (s *Server) handleDelivery(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	sig := r.Header.Get("X-Hub-Signature-256")
	if sig == "" {
		sig = r.Header.Get("X-Hub-Signature")
	}
	if !VerifySignature(body, sig, s.cfg.WhatsApp.AppSecret) {
		metrics.DeliveriesRejected.Inc()
		s.logger.Warn("invalid webhook signature", "remote", r.RemoteAddr)
		http.Error(rw, "Forbidden", http.StatusForbidden)
		return
	}

	delivery, err := ParseDelivery(body, time.Now())
	if err != nil {
		metrics.DeliveriesRejected.Inc()
		s.logger.Warn("bad webhook payload", "err", err)
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}

	metrics.DeliveriesReceived.Inc()
	if len(delivery.Messages) > 0 {
		s.bus.Publish(delivery)
	}

	s.ack(rw, map[string]string{"status": "ok"})
}

// handleTwilio translates Twilio's form-encoded webhook ('From' and 'Body')
// into the normalized delivery shape. Twilio assigns no message id we can
// dedup on, so those messages skip the idempotency claim downstream.
func (s *Server) handleTwilio(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	text := r.PostFormValue("Body")
	if from == "" {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}

	now := time.Now()
	metrics.DeliveriesReceived.Inc()
	s.bus.Publish(domain.Delivery{
		Transport:  domain.TransportTwilio,
		ReceivedAt: now,
		Messages: []domain.InboundMessage{{
			From:       from,
			ChannelID:  domain.TransportTwilio,
			Type:       "text",
			Text:       text,
			ReceivedAt: now,
		}},
	})

	s.ack(rw, map[string]string{"status": "forwarded"})
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	s.ack(rw, map[string]string{"status": "ok"})
}

func (s *Server) ack(rw http.ResponseWriter, body map[string]string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		s.logger.Debug("ack write failed", "err", err)
	}
}
