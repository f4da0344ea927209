package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"edobot/internal/domain"
	"edobot/internal/metrics"
)

func (r *Router) sendWelcome(ctx context.Context, m domain.Messenger, to string, shop *domain.ShopContext) error {
	shopName := r.replies.GenericShopName
	if shop != nil {
		shopName = "Shop " + shop.ShopID
	}
	return r.send(ctx, m, to, fmt.Sprintf(r.replies.Welcome, shopName))
}

func (r *Router) listItems(ctx context.Context, m domain.Messenger, to string, shop *domain.ShopContext, page int) error {
	sellerID := ""
	if shop != nil {
		sellerID = shop.SellerUserID
	}

	sctx, cancel := r.callCtx(ctx)
	items, err := r.store.ListAvailableItems(sctx, sellerID, page, r.pageSize)
	cancel()
	if err != nil {
		r.send(ctx, m, to, r.replies.Failure)
		return fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return r.send(ctx, m, to, r.replies.NoItems)
	}

	lines := make([]string, 0, len(items)+1)
	for i, item := range items {
		lines = append(lines, fmt.Sprintf(r.replies.ListLine, i+1, item.Title, item.Price.String(), item.ID))
	}
	lines = append(lines, "", r.replies.ListFooter)
	return r.send(ctx, m, to, strings.Join(lines, "\n"))
}

func (r *Router) viewItem(ctx context.Context, m domain.Messenger, to, itemID string) error {
	sctx, cancel := r.callCtx(ctx)
	item, err := r.store.GetItem(sctx, itemID)
	cancel()
	if err != nil {
		r.send(ctx, m, to, r.replies.Failure)
		return fmt.Errorf("view item: %w", err)
	}
	if item == nil {
		return r.send(ctx, m, to, r.replies.ItemNotFound)
	}

	// First image URL when there is one, otherwise the description.
	detail := item.Description
	if len(item.Images) > 0 {
		detail = item.Images[0]
	}
	body := fmt.Sprintf(r.replies.ItemDetail, item.Title, item.Price.String(), detail)
	body += "\n\n" + fmt.Sprintf(r.replies.ItemInstructions, item.ID)
	return r.send(ctx, m, to, body)
}

func (r *Router) createOrder(ctx context.Context, m domain.Messenger, to string, shop *domain.ShopContext, itemID string, qty int) error {
	if qty < 1 {
		qty = 1
	}

	sctx, cancel := r.callCtx(ctx)
	item, err := r.store.GetItem(sctx, itemID)
	cancel()
	if err != nil {
		r.send(ctx, m, to, r.replies.Failure)
		return fmt.Errorf("order item lookup: %w", err)
	}
	if item == nil {
		return r.send(ctx, m, to, r.replies.OrderItemNotFound)
	}

	// A buyer without an account is still allowed to order; the thread
	// address keeps the conversation reachable.
	buyerID := ""
	uctx, cancel := r.callCtx(ctx)
	buyer, err := r.store.FindUserByAddress(uctx, to)
	cancel()
	if err != nil {
		r.logger.Warn("buyer lookup failed, creating order without account", "address", to, "err", err)
	} else if buyer != nil {
		buyerID = buyer.ID
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		ItemID:        item.ID,
		BuyerUserID:   buyerID,
		SellerUserID:  item.SellerID,
		Quantity:      qty,
		Price:         item.Price,
		Status:        domain.OrderCreated,
		ThreadAddress: to,
		CreatedAt:     time.Now(),
	}

	octx, cancel := r.callCtx(ctx)
	err = r.store.CreateOrder(octx, order)
	cancel()
	if err != nil {
		r.send(ctx, m, to, r.replies.OrderFailed)
		return fmt.Errorf("create order: %w", err)
	}
	metrics.OrdersCreated.Inc()

	code := order.ShortCode()
	if err := r.sendTagged(ctx, m, to, fmt.Sprintf(r.replies.OrderCreated, code), "", order.ID); err != nil {
		return fmt.Errorf("order confirmation send: %w", err)
	}

	// Seller notifications go out on the primary platform: seller addresses
	// are phone numbers there, whichever transport the buyer wrote in on.
	if shop != nil && shop.SellerAddress != "" {
		seller := r.messengers.For(domain.TransportWhatsApp)
		note := fmt.Sprintf(r.replies.SellerNotification, code, item.Title, to)
		if err := r.sendTagged(ctx, seller, shop.SellerAddress, note, shop.ShopID, order.ID); err != nil {
			// The order exists either way; the seller can still find it in
			// the dashboard.
			r.logger.Error("seller notification failed", "order_id", order.ID, "err", err)
		}
	}
	return nil
}

func (r *Router) forwardToSeller(ctx context.Context, m domain.Messenger, from string, shop *domain.ShopContext, text string) error {
	if shop.SellerAddress == "" {
		return r.send(ctx, m, from, r.replies.SellerUnavailable)
	}

	seller := r.messengers.For(domain.TransportWhatsApp)
	forwarded := fmt.Sprintf(r.replies.Forwarded, from, text)
	if err := r.sendTagged(ctx, seller, shop.SellerAddress, forwarded, shop.ShopID, ""); err != nil {
		r.send(ctx, m, from, r.replies.Failure)
		return fmt.Errorf("forward to seller: %w", err)
	}
	// The buyer gets no reply on a successful forward; the seller answers.
	return nil
}

// send delivers one reply under the call timeout and logs it best-effort.
func (r *Router) send(ctx context.Context, m domain.Messenger, to, text string) error {
	return r.sendTagged(ctx, m, to, text, "", "")
}

func (r *Router) sendTagged(ctx context.Context, m domain.Messenger, to, text, shopID, orderID string) error {
	sctx, cancel := r.callCtx(ctx)
	err := m.SendText(sctx, to, text)
	cancel()
	if err != nil {
		metrics.SendFailures.Inc()
		return fmt.Errorf("send to %s: %w", to, err)
	}

	lctx, cancel := r.callCtx(ctx)
	defer cancel()
	r.store.LogMessage(lctx, domain.MessageLog{
		Direction: domain.DirectionOutbound,
		To:        to,
		Payload:   text,
		ShopID:    shopID,
		OrderID:   orderID,
	})
	return nil
}
