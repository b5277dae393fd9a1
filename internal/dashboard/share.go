package dashboard

import (
	"net/url"
	"strings"
)

// ShareURL builds the canonical public link for a card: <base>/c/<cardID>.
// The same string is the payload encoded into the card's QR code.
func ShareURL(base, cardID string) string {
	return strings.TrimRight(base, "/") + "/c/" + url.PathEscape(cardID)
}
