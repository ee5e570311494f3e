package template

type GoogleField struct {
	Field       string `json:"field"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

var googleShoppingFields = []GoogleField{
	{"id", true, "A unique identifier for the product", "SKU123"},
	{"title", true, "Product title", "Google Pixel 6 128GB Black"},
	{"description", true, "Product description", "High-performance smartphone with exceptional camera capabilities."},
	{"link", true, "URL directly linking to your product page", "https://example.com/product/pixel-6"},
	{"image_link", true, "URL of the product's main image", "https://example.com/images/pixel-6.jpg"},
	{"availability", true, "Product's availability status", "in stock"},
	{"price", true, "Product's price with currency code", "699.00 USD"},

	{"brand", false, "Product's brand name", "Google"},
	{"gtin", false, "Global Trade Item Number (UPC, EAN, JAN, ISBN)", "885909950805"},
	{"mpn", false, "Manufacturer Part Number", "GA01878-US"},
	{"condition", false, "Product's condition", "new"},

	{"additional_image_link", false, "Additional product images (up to 10)", "https://example.com/images/pixel-6-alt1.jpg"},
	{"age_group", false, "Target age group", "adult"},
	{"color", false, "Product's color", "Black"},
	{"gender", false, "Target gender", "unisex"},
	{"google_product_category", false, "Google product taxonomy category", "Electronics > Communications > Telephony > Mobile Phones"},
	{"item_group_id", false, "ID for a group of products that come in different variations", "pixel-6-group"},
	{"material", false, "Material the product is made of", "Aluminum and glass"},
	{"pattern", false, "Product's pattern", "Striped"},
	{"product_type", false, "Your product's category", "Smartphones"},
	{"sale_price", false, "Discounted price with currency", "649.00 USD"},
	{"sale_price_effective_date", false, "Date range when sale price is in effect", "2023-01-15T13:00:00-08:00/2023-01-22T15:30:00-08:00"},
	{"shipping", false, "Shipping cost and delivery time", "US:CA:Ground:9.99 USD"},
	{"shipping_weight", false, "Product's shipping weight", "1.5 kg"},
	{"adult", false, "Whether the product contains adult content", "no"},
	{"multipack", false, "Number of identical products in a multipack", "6"},
	{"is_bundle", false, "Whether the product is a bundle of different products", "true"},
	{"custom_label_0", false, "Custom grouping of products (label 0)", "Bestseller"},
	{"custom_label_1", false, "Custom grouping of products (label 1)", "Summer"},
	{"custom_label_2", false, "Custom grouping of products (label 2)", "Clearance"},
	{"custom_label_3", false, "Custom grouping of products (label 3)", "New"},
	{"custom_label_4", false, "Custom grouping of products (label 4)", "Limited Edition"},
}

// GoogleShoppingFields returns the Google Merchant Center attribute catalogue.
func GoogleShoppingFields() []GoogleField {
	out := make([]GoogleField, len(googleShoppingFields))
	copy(out, googleShoppingFields)
	return out
}
