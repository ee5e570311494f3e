package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
)

func identity(fields ...string) []template.FieldMapping {
	mappings := make([]template.FieldMapping, 0, len(fields))
	for _, f := range fields {
		mappings = append(mappings, template.FieldMapping{SourceField: f, TargetField: f})
	}
	return mappings
}

func happyRecord() record.Record {
	return record.Record{
		"id":           record.String("1"),
		"title":        record.String("T"),
		"description":  record.String("D"),
		"link":         record.String("https://x"),
		"image_link":   record.String("https://y"),
		"price":        record.String("9.99 USD"),
		"availability": record.String("in stock"),
		"brand":        record.String("B"),
		"gtin":         record.String("885909950805"),
	}
}

var googleFields = []string{"id", "title", "description", "link", "image_link", "price", "availability", "brand", "gtin", "mpn", "condition"}

func fields(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Field)
	}
	return out
}

func TestBaseRequiredRule(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	mappings := []template.FieldMapping{
		{SourceField: "name", TargetField: "title", IsRequired: true},
		{SourceField: "sku", TargetField: "id", IsRequired: true, DefaultValue: "fallback"},
		{SourceField: "color", TargetField: "color"},
	}

	res := v.Validate(record.Record{"name": record.String("")}, mappings, template.FeedTypeMeta)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "title", res.Errors[0].Field)
	assert.Equal(t, "Required field title is missing or empty", res.Errors[0].Message)
	assert.Empty(t, res.Warnings)

	res = v.Validate(record.Record{"name": record.String("Shirt")}, mappings, template.FeedTypeTrovaprezzi)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestGoogleHappyPath(t *testing.T) {
	v := New(mapper.New(nil), Options{})

	res := v.Validate(happyRecord(), identity(googleFields...), template.FeedTypeGoogle)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestGoogleMissingTitle(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	rec := happyRecord()
	delete(rec, "title")

	res := v.Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"title"}, fields(res.Errors))
	assert.Equal(t, "1", res.Errors[0].Product["id"])
}

func TestGoogleRequiredNotDuplicated(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	rec := happyRecord()
	delete(rec, "price")

	mappings := identity(googleFields...)
	mappings[5].IsRequired = true

	res := v.Validate(rec, mappings, template.FeedTypeGoogle)
	assert.Equal(t, []string{"price"}, fields(res.Errors))
}

func TestGoogleIdentifierFallback(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	mappings := identity("title", "description", "link", "image_link", "price", "availability", "brand", "gtin")

	res := v.Validate(happyRecord(), mappings, template.FeedTypeGoogle)
	assert.True(t, res.IsValid, "raw record id satisfies the identifier requirement")

	rec := happyRecord()
	delete(rec, "id")
	res = v.Validate(rec, mappings, template.FeedTypeGoogle)
	assert.Equal(t, []string{"id"}, fields(res.Errors))
}

func TestGoogleSecondaryIdentifiers(t *testing.T) {
	rec := happyRecord()
	delete(rec, "gtin")
	delete(rec, "brand")

	res := New(mapper.New(nil), Options{}).Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.True(t, res.IsValid)
	assert.ElementsMatch(t, []string{"gtin", "brand"}, fields(res.Warnings))

	strict := New(mapper.New(nil), Options{RequireBrand: true}).Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.False(t, strict.IsValid)
	assert.Equal(t, []string{"brand"}, fields(strict.Errors))
	assert.Equal(t, []string{"gtin"}, fields(strict.Warnings))

	rec["mpn"] = record.String("GA01878-US")
	rec["brand"] = record.String("B")
	res = New(mapper.New(nil), Options{}).Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.Empty(t, res.Warnings)
}

func TestGoogleEnumsAndFormats(t *testing.T) {
	v := New(mapper.New(nil), Options{})

	rec := happyRecord()
	rec["availability"] = record.String("available")
	res := v.Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"availability"}, fields(res.Errors))

	rec = happyRecord()
	rec["price"] = record.String("9,99 €")
	rec["condition"] = record.String("broken")
	res = v.Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.True(t, res.IsValid)
	assert.ElementsMatch(t, []string{"price", "condition"}, fields(res.Warnings))

	rec = happyRecord()
	rec["price"] = record.Number(9.99)
	rec["condition"] = record.String("refurbished")
	res = v.Validate(rec, identity(googleFields...), template.FeedTypeGoogle)
	assert.Empty(t, res.Warnings, "numeric prices are not format checked")
}

func TestOtherFormatsUseOnlyBaseRule(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	rec := record.Record{"availability": record.String("maybe")}

	res := v.Validate(rec, identity("availability"), template.FeedTypeMeta)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Warnings)
}

func TestRegisterOverlay(t *testing.T) {
	v := New(mapper.New(nil), Options{})
	v.Register(template.FeedTypeTrovaprezzi, func(c *Check) {
		if _, ok := c.Value("EAN"); !ok {
			c.Warn("EAN", "EAN improves matching")
		}
	})

	res := v.Validate(record.Record{"name": record.String("x")}, identity("name"), template.FeedTypeTrovaprezzi)
	assert.True(t, res.IsValid)
	assert.Equal(t, []string{"EAN"}, fields(res.Warnings))
}
