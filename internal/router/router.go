// Package router dispatches normalized inbound messages to the marketplace
// handlers. It is the only place that decides what happens for a message.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edobot/internal/domain"
	"edobot/internal/intent"
	"edobot/internal/metrics"
)

const (
	defaultCallTimeout = 10 * time.Second
	defaultConcurrency = 8
	defaultPageSize    = 10
)

// Router resolves shop context, classifies each message, and invokes the
// matching handler with per-message isolation and dedup.
type Router struct {
	store       domain.Store
	messengers  domain.MessengerResolver
	replies     *Replies
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int
	pageSize    int
}

// Config holds the router's collaborators and tuning parameters.
type Config struct {
	Store       domain.Store
	Messengers  domain.MessengerResolver
	Replies     *Replies
	Logger      *slog.Logger
	CallTimeout time.Duration // per store/messenger call
	Concurrency int           // max deliveries in flight
}

func New(cfg Config) *Router {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Replies == nil {
		cfg.Replies = DefaultReplies()
	}
	return &Router{
		store:       cfg.Store,
		messengers:  cfg.Messengers,
		replies:     cfg.Replies,
		logger:      cfg.Logger,
		timeout:     cfg.CallTimeout,
		concurrency: cfg.Concurrency,
		pageSize:    defaultPageSize,
	}
}

// Run consumes deliveries with bounded concurrency until the context is
// cancelled or the bus closes. Deliveries run in parallel; the messages
// inside one delivery run sequentially to preserve conversational order for
// a single sender.
func (r *Router) Run(ctx context.Context, bus domain.DeliveryBus) {
	r.logger.Info("router started", "concurrency", r.concurrency)

	sem := make(chan struct{}, r.concurrency)
	inbound := bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("router stopping")
			return
		case d, ok := <-inbound:
			if !ok {
				r.logger.Info("delivery bus closed, router stopping")
				return
			}
			sem <- struct{}{}
			go func(d domain.Delivery) {
				defer func() { <-sem }()
				r.HandleDelivery(ctx, d)
			}(d)
		}
	}
}

// HandleDelivery processes one delivery's messages in order. A failure in one
// message is logged and never stops its siblings.
func (r *Router) HandleDelivery(ctx context.Context, d domain.Delivery) {
	start := time.Now()
	reply := r.messengers.For(d.Transport)

	for _, msg := range d.Messages {
		if err := r.handleMessage(ctx, reply, msg); err != nil {
			metrics.HandlerFailures.Inc()
			r.logger.Error("message handling failed",
				"message_id", msg.MessageID,
				"from", msg.From,
				"err", err,
			)
		}
	}

	metrics.DeliveryLatency.Observe(time.Since(start).Seconds())
}

func (r *Router) handleMessage(ctx context.Context, reply domain.Messenger, msg domain.InboundMessage) error {
	lctx, cancel := r.callCtx(ctx)
	r.store.LogMessage(lctx, domain.MessageLog{
		Direction: domain.DirectionInbound,
		From:      msg.From,
		To:        msg.ChannelID,
		Payload:   msg.Text,
	})
	cancel()

	// Claim the message id before any side effect. The claim is durable, so
	// a re-delivered webhook can never create a second order or forward.
	// Adapters that supply no id (Twilio) skip the claim.
	if msg.MessageID != "" {
		cctx, cancel := r.callCtx(ctx)
		first, err := r.store.MarkProcessed(cctx, msg.MessageID)
		cancel()
		if err != nil {
			// Without the claim we can't rule out an earlier attempt, and a
			// duplicate order is worse than asking the buyer to retry.
			r.send(ctx, reply, msg.From, r.replies.Failure)
			return fmt.Errorf("dedup claim for %s: %w", msg.MessageID, err)
		}
		if !first {
			metrics.MessagesDuplicate.Inc()
			r.logger.Info("duplicate message skipped", "message_id", msg.MessageID)
			return nil
		}
	}

	shop := r.resolveShop(ctx, msg.ChannelID)
	in := intent.Classify(msg.Text)

	metrics.MessagesProcessed.Inc()
	metrics.IntentCounter(in.Kind.String()).Inc()
	r.logger.Info("routing message",
		"intent", in.Kind.String(),
		"from", msg.From,
		"channel_id", msg.ChannelID,
		"shop_mapped", shop != nil,
	)

	switch in.Kind {
	case domain.IntentWelcome:
		return r.sendWelcome(ctx, reply, msg.From, shop)
	case domain.IntentListItems:
		return r.listItems(ctx, reply, msg.From, shop, in.Page)
	case domain.IntentViewItem:
		return r.viewItem(ctx, reply, msg.From, in.ItemID)
	case domain.IntentCreateOrder:
		return r.createOrder(ctx, reply, msg.From, shop, in.ItemID, in.Quantity)
	case domain.IntentFaq:
		return r.send(ctx, reply, msg.From, r.replies.Faq)
	case domain.IntentHelp:
		return r.send(ctx, reply, msg.From, r.replies.Help)
	case domain.IntentFreeText:
		if shop != nil {
			return r.forwardToSeller(ctx, reply, msg.From, shop, in.Text)
		}
		return r.send(ctx, reply, msg.From, r.replies.Fallback)
	default:
		// IntentEmpty and anything future-unknown: point at the menu.
		return r.send(ctx, reply, msg.From, r.replies.DidntUnderstand)
	}
}

// resolveShop maps the receiving channel to its shop. An unmapped channel and
// a failed lookup both degrade to the shop-less path; only the failure is an
// event worth shouting about.
func (r *Router) resolveShop(ctx context.Context, channelID string) *domain.ShopContext {
	sctx, cancel := r.callCtx(ctx)
	defer cancel()

	shop, err := r.store.FindShopByChannel(sctx, channelID)
	if err != nil {
		r.logger.Error("shop lookup failed, continuing without shop context",
			"channel_id", channelID, "err", err)
		return nil
	}
	return shop
}

func (r *Router) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}
