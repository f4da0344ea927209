// Package intent turns a message's text into exactly one intent. The
// classifier is a pure function: total, deterministic, case-insensitive, and
// whitespace-trimmed, so it can be tested without any collaborators.
package intent

import (
	"strconv"
	"strings"

	"edobot/internal/domain"
)

// Classify maps text to an intent. First matching rule wins:
//
//  1. empty/whitespace-only             → Empty
//  2. "hi" | "hello" | "menu"          → Welcome
//  3. "list..." | "1"                  → ListItems page 1
//  4. "view <id>"                      → ViewItem
//  5. "order <id> [qty <n>]"           → CreateOrder (qty defaults to 1)
//  6. "faq" | "4"                      → Faq
//  7. "help"                           → Help
//  8. anything else                    → FreeText
//
// "view" or "order" with no id token is not an error: it falls through to
// FreeText like any other sentence.
func Classify(text string) domain.Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return domain.Intent{Kind: domain.IntentEmpty}
	}

	switch t {
	case "hi", "hello", "menu":
		return domain.Intent{Kind: domain.IntentWelcome}
	}

	if strings.HasPrefix(t, "list") || t == "1" {
		return domain.Intent{Kind: domain.IntentListItems, Page: 1}
	}

	if strings.HasPrefix(t, "view ") {
		if id, ok := argAfterKeyword(t); ok {
			return domain.Intent{Kind: domain.IntentViewItem, ItemID: id}
		}
	}

	if strings.HasPrefix(t, "order ") {
		if id, ok := argAfterKeyword(t); ok {
			return domain.Intent{
				Kind:     domain.IntentCreateOrder,
				ItemID:   id,
				Quantity: quantityArg(t),
			}
		}
	}

	switch t {
	case "faq", "4":
		return domain.Intent{Kind: domain.IntentFaq}
	case "help":
		return domain.Intent{Kind: domain.IntentHelp}
	}

	return domain.Intent{Kind: domain.IntentFreeText, Text: t}
}

// argAfterKeyword returns the token following the command keyword.
func argAfterKeyword(t string) (string, bool) {
	parts := strings.Fields(t)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// quantityArg extracts the value of a trailing "qty <n>" pair. A missing
// pair, a non-numeric value, or anything below 1 silently defaults to 1.
func quantityArg(t string) int {
	parts := strings.Fields(t)
	for i, p := range parts {
		if p == "qty" && i+1 < len(parts) {
			if n, err := strconv.Atoi(parts[i+1]); err == nil && n >= 1 {
				return n
			}
			return 1
		}
	}
	return 1
}
