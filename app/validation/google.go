package validation

import (
	"fmt"
	"regexp"

	"github.com/lysyi3m/product-feeds/app/record"
)

var googleRequired = []string{"id", "title", "description", "link", "image_link", "price", "availability"}

var googleAvailability = map[string]bool{
	"in stock":     true,
	"out of stock": true,
	"preorder":     true,
	"backorder":    true,
}

var googleCondition = map[string]bool{
	"new":         true,
	"refurbished": true,
	"used":        true,
}

var googlePrice = regexp.MustCompile(`^\d+(\.\d+)? [A-Z]{3}$`)

func googleOverlay(c *Check) {
	for _, field := range googleRequired {
		if c.HasError(field) {
			continue
		}
		if _, ok := c.Value(field); ok {
			continue
		}
		// The serializer falls back to the raw record id.
		if field == "id" && c.Record.ID() != "" {
			continue
		}
		c.Error(field, fmt.Sprintf("Missing required Google Shopping attribute %s", field))
	}

	_, hasGTIN := c.Value("gtin")
	_, hasMPN := c.Value("mpn")
	if !hasGTIN && !hasMPN {
		c.Warn("gtin", "Products should provide a gtin or an mpn")
	}

	if _, ok := c.Value("brand"); !ok && !c.HasError("brand") {
		if c.Options.RequireBrand {
			c.Error("brand", "Missing required Google Shopping attribute brand")
		} else {
			c.Warn("brand", "Products should provide a brand")
		}
	}

	if v, ok := c.Value("availability"); ok && !googleAvailability[v.String()] {
		c.Error("availability", fmt.Sprintf("Invalid availability %q: expected one of in stock, out of stock, preorder, backorder", v.String()))
	}

	if v, ok := c.Value("price"); ok && v.Kind() == record.KindString && !googlePrice.MatchString(v.String()) {
		c.Warn("price", fmt.Sprintf("Price %q should be formatted as \"<amount> <ISO currency>\"", v.String()))
	}

	if v, ok := c.Value("condition"); ok && !googleCondition[v.String()] {
		c.Warn("condition", fmt.Sprintf("Invalid condition %q: expected new, refurbished or used", v.String()))
	}
}
