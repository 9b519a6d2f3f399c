package builder

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// productEntry is the published shape of one product page in
// static/products/index.json.
type productEntry struct {
	URL               string `json:"url"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	PriceCents        int    `json:"priceCents"`
	Currency          string `json:"currency"`
	StripePriceID     string `json:"stripePriceId,omitempty"`
	StripePaymentLink string `json:"stripePaymentLink,omitempty"`
	Image             string `json:"image,omitempty"`
}

// writeProductIndex summarizes every product page. Sites without products
// get no file at all.
func (b *Builder) writeProductIndex(metas []page.Metadata) error {
	var products []productEntry
	for _, m := range metas {
		if m.Type != page.TypeProduct {
			continue
		}
		products = append(products, productEntry{
			URL:               b.publicURL(pageURL(m)),
			Title:             m.Title,
			Description:       m.Description,
			PriceCents:        m.PriceCents,
			Currency:          m.Currency,
			StripePriceID:     m.StripePriceID,
			StripePaymentLink: m.StripePaymentLink,
			Image:             m.Image,
		})
	}
	if len(products) == 0 {
		return nil
	}

	payload, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal product index: %w", err)
	}
	slog.Debug("Generated product index", logfields.Count(len(products)))
	return writeFile(filepath.Join(b.cfg.OutputDir, "static", "products", "index.json"), payload)
}
