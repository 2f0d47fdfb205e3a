package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"reda-store/internal/reports"
)

// OrderLink is a wa.me deep link that opens a chat with the shop,
// prefilled with the product the customer is looking at.
type OrderLink struct {
	URL      string `json:"url"`
	ShareURL string `json:"shareUrl"`
	Message  string `json:"message"`
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// ProductShareURL is the public page of a product.
func (s *Service) ProductShareURL(productID string) string {
	return s.baseURL + "/product/" + url.PathEscape(productID)
}

// BuildOrderLink renders the order message for a product and the given number.
func BuildOrderLink(whatsApp, name string, price float64, shareURL string) OrderLink {
	msg := fmt.Sprintf("Hi! I'm interested in:\n*%s*\nPrice: %s\n\nProduct link: %s\n\nPlease confirm availability.",
		name, reports.FormatRs(price), shareURL)
	// wa.me expects %20, QueryEscape writes + for spaces
	text := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return OrderLink{
		URL:      "https://wa.me/" + digitsOnly(whatsApp) + "?text=" + text,
		ShareURL: shareURL,
		Message:  msg,
	}
}

// OrderLink builds the link using the WhatsApp number from the saved settings.
func (s *Service) OrderLink(ctx context.Context, productID, name string, price float64) (*OrderLink, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	link := BuildOrderLink(st.WhatsAppNumber, name, price, s.ProductShareURL(productID))
	return &link, nil
}
