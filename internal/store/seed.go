package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"edobot/internal/domain"
)

// Seed inserts a demo shop, seller, buyer, and a few listings so a fresh
// install can be exercised end to end with `edobot simulate`. Inserts are
// idempotent; running seed twice changes nothing.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	users := []domain.User{
		{ID: "seller-demo", Name: "Demo Seller", Phone: "+919800000001"},
		{ID: "buyer-demo", Name: "Demo Buyer", Phone: "+919812345678"},
	}
	for _, u := range users {
		if err := s.InsertUser(ctx, u); err != nil {
			return err
		}
	}

	if err := s.UpsertShopChannel(ctx, domain.ShopContext{
		ChannelID:     "12345",
		ShopID:        "shop-demo",
		SellerUserID:  "seller-demo",
		SellerAddress: "+919800000001",
	}); err != nil {
		return err
	}

	items := []domain.Item{
		{
			ID: "42", SellerID: "seller-demo", Title: "Vintage film camera",
			Description: "Working condition, ships in 2 days.",
			Price:       decimal.NewFromInt(500), Condition: "used",
			Images: []string{"https://example.com/items/42.jpg"},
		},
		{
			ID: "43", SellerID: "seller-demo", Title: "Mechanical keyboard",
			Description: "Brown switches, barely used.",
			Price:       decimal.NewFromInt(1200), Condition: "like new",
		},
		{
			ID: "44", SellerID: "seller-demo", Title: "Desk lamp",
			Description: "Warm white, USB powered.",
			Price:       decimal.NewFromInt(350), Condition: "new",
		},
	}
	for _, item := range items {
		if err := s.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("seed item %s: %w", item.ID, err)
		}
	}

	return nil
}
