package router

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Replies holds every user-facing reply text. The defaults match the edo
// wording; a YAML pack can override any subset of them (unset keys keep the
// default).
type Replies struct {
	Welcome            string `yaml:"welcome"`
	GenericShopName    string `yaml:"genericShopName"`
	Help               string `yaml:"help"`
	Faq                string `yaml:"faq"`
	DidntUnderstand    string `yaml:"didntUnderstand"`
	NoItems            string `yaml:"noItems"`
	ListLine           string `yaml:"listLine"`
	ListFooter         string `yaml:"listFooter"`
	ItemNotFound       string `yaml:"itemNotFound"`
	ItemDetail         string `yaml:"itemDetail"`
	ItemInstructions   string `yaml:"itemInstructions"`
	OrderItemNotFound  string `yaml:"orderItemNotFound"`
	OrderCreated       string `yaml:"orderCreated"`
	OrderFailed        string `yaml:"orderFailed"`
	SellerNotification string `yaml:"sellerNotification"`
	SellerUnavailable  string `yaml:"sellerUnavailable"`
	Forwarded          string `yaml:"forwarded"`
	Fallback           string `yaml:"fallback"`
	Failure            string `yaml:"failure"`
}

func DefaultReplies() *Replies {
	return &Replies{
		Welcome:           "Hi 👋 — you're chatting with %s on edo. Reply: 1 — View listings, 2 — View item (send 'view <ID>'), 3 — Place an order (send 'order <ID> qty <n>'), 4 — FAQs",
		GenericShopName:   "the shop",
		Help:              "Options:\n1 List\n2 View <id>\n3 Order <id> qty <n>\n4 FAQ\nOr ask a question.",
		Faq:               "FAQs:\n- Send 'list' to browse available items.\n- Send 'view <ID>' to see one item.\n- Send 'order <ID> qty <n>' to place an order.\n- Anything else goes straight to the seller.",
		DidntUnderstand:   "Sorry, I didn't understand. Reply 'menu' to see options.",
		NoItems:           "No items found.",
		ListLine:          "%d) %s — ₹%s — ID: %s",
		ListFooter:        "Reply 'view <ID>' to see details or 'order <ID> qty 1' to order.",
		ItemNotFound:      "Item not found. Check ID and try again.",
		ItemDetail:        "%s — ₹%s\n%s",
		ItemInstructions:  "To order reply: order %s qty 1\nOr reply 'chat' to message seller.",
		OrderItemNotFound: "Item not found.",
		// %[1]s is the short order code, used twice.
		OrderCreated:       "Order created: %[1]s. Reply 'confirm %[1]s' to confirm.",
		OrderFailed:        "Unable to create order. Try again later.",
		SellerNotification: "New order %[1]s created for item %[2]s. Buyer: %[3]s. Reply 'accept %[1]s' to accept.",
		SellerUnavailable:  "Sorry, the seller is unavailable right now.",
		Forwarded:          "Message from %s:\n\n%s\n\n(Reply here to message buyer)",
		Fallback:           "Thanks for your message. A seller will get back to you soon. Reply 'menu' to see options.",
		Failure:            "Something went wrong. Please try again later.",
	}
}

// LoadReplies reads a YAML reply pack over the defaults. A missing or broken
// pack is not fatal; the defaults are the product copy.
func LoadReplies(path string, logger *slog.Logger) *Replies {
	replies := DefaultReplies()
	if path == "" {
		return replies
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read reply pack, using defaults", "path", path, "err", err)
		return replies
	}
	if err := yaml.Unmarshal(data, replies); err != nil {
		logger.Warn("cannot parse reply pack, using defaults", "path", path, "err", err)
		return DefaultReplies()
	}

	logger.Info("loaded reply pack", "path", path)
	return replies
}
