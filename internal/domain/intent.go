package domain

// IntentKind identifies which handler a message is dispatched to.
type IntentKind int

const (
	IntentEmpty IntentKind = iota
	IntentWelcome
	IntentListItems
	IntentViewItem
	IntentCreateOrder
	IntentFaq
	IntentHelp
	IntentFreeText
)

func (k IntentKind) String() string {
	switch k {
	case IntentEmpty:
		return "empty"
	case IntentWelcome:
		return "welcome"
	case IntentListItems:
		return "list_items"
	case IntentViewItem:
		return "view_item"
	case IntentCreateOrder:
		return "create_order"
	case IntentFaq:
		return "faq"
	case IntentHelp:
		return "help"
	case IntentFreeText:
		return "free_text"
	}
	return "unknown"
}

// Intent is the classified meaning of a message: a kind plus the arguments
// parsed from the text. Exactly one intent per message.
type Intent struct {
	Kind     IntentKind
	Page     int    // IntentListItems
	ItemID   string // IntentViewItem, IntentCreateOrder
	Quantity int    // IntentCreateOrder, always >= 1
	Text     string // IntentFreeText: the normalized message text
}
