package record

import (
	"bytes"
	"cmp"
	"fmt"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// shoppingPrefix is the namespace prefix used by Google Merchant style catalogs.
const shoppingPrefix = "g"

// CatalogParser reads product records out of an existing shopping catalog feed
// (RSS or Atom with g: extension elements).
type CatalogParser struct {
	gofeedParser *gofeed.Parser
}

func NewCatalogParser() *CatalogParser {
	return &CatalogParser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *CatalogParser) Run(data []byte) ([]Record, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog feed: %w", err)
	}

	records := make([]Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, p.normalizeItem(item))
	}

	return records, nil
}

func (p *CatalogParser) normalizeItem(item *gofeed.Item) Record {
	rec := Record{}

	setIfPresent(rec, "title", item.Title)
	setIfPresent(rec, "link", item.Link)
	setIfPresent(rec, "description", strings.TrimSpace(item.Description))

	if item.Image != nil {
		setIfPresent(rec, "image_link", item.Image.URL)
	}

	if len(item.Categories) > 0 {
		setIfPresent(rec, "product_type", strings.Join(item.Categories, " > "))
	}

	for name, values := range item.Extensions[shoppingPrefix] {
		if v := extensionValue(values); !v.IsAbsent() {
			rec[name] = v
		}
	}

	if rec.ID() == "" {
		setIfPresent(rec, "id", cmp.Or(item.GUID, item.Link))
	}

	return rec
}

// extensionValue keeps repeated elements such as g:additional_image_link as a
// list.
func extensionValue(values []ext.Extension) Value {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		value := strings.TrimSpace(v.Value)
		if value == "" && len(v.Children) > 0 {
			value = flattenChildren(v.Children)
		}
		parts = append(parts, value)
	}
	return List(parts...)
}

// flattenChildren renders nested elements such as g:shipping as
// "country:IT,price:4.90 EUR".
func flattenChildren(children map[string][]ext.Extension) string {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		for _, v := range children[name] {
			if value := strings.TrimSpace(v.Value); value != "" {
				parts = append(parts, name+":"+value)
			}
		}
	}
	return strings.Join(parts, ",")
}

func setIfPresent(rec Record, field, value string) {
	if value != "" {
		rec[field] = String(value)
	}
}
