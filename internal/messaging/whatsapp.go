package messaging

import (
	"net/url"
	"strings"

	"printshop/internal/core"
)

const waBase = "https://wa.me/"

// WhatsAppURL builds a wa.me click-to-chat link. Everything but digits is stripped from
// phone; text is percent-encoded with spaces as %20.
func WhatsAppURL(phone, text string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", core.Invalid("phone", "%q contains no digits", phone)
	}
	return waBase + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20"), nil
}
