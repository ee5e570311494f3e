package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/product-feeds/app/record"
)

func ptr[T any](v T) *T { return &v }

func apply(t *testing.T, in record.Value, chain ...Transformation) record.Value {
	t.Helper()
	return NewEngine(nil, time.UTC).Apply(in, chain, nil)
}

func TestEngineAppliesStepsInOrder(t *testing.T) {
	in := record.String("3")

	got := apply(t, in, &Add{Value: 5}, &Multiply{Value: 2})
	assert.Equal(t, "16", got.String())

	got = apply(t, in, &Multiply{Value: 2}, &Add{Value: 5})
	assert.Equal(t, "11", got.String())
}

func TestEngineNullPassThrough(t *testing.T) {
	chain := Chain{
		&Uppercase{}, &Trim{}, &Concatenate{Template: "x{value}"}, &NumberFormat{},
		&DateFormat{}, &Add{Value: 1}, &Truncate{MaxLength: 1}, &ValueMapping{KeepOriginal: ptr(false)},
		&CurrencyConversion{ManualRate: ptr(Amount(2))}, &DynamicURL{BaseURL: "https://x"},
	}

	got := NewEngine(nil, nil).Apply(record.Null(), chain, record.Record{})
	assert.True(t, got.IsNull())
}

func TestEngineCombineFieldsRunsOnNull(t *testing.T) {
	rec := record.Record{"brand": record.String("Acme")}
	chain := Chain{&CombineFields{Fields: []string{"brand"}}}

	got := NewEngine(nil, nil).Apply(record.Null(), chain, rec)
	assert.Equal(t, "Acme", got.String())
}

func TestEngineDoesNotMutateRecord(t *testing.T) {
	rec := record.Record{"title": record.String("shirt"), "color": record.String("rosso")}
	chain := Chain{&CombineFields{Fields: []string{"color"}}, &Uppercase{}}

	e := NewEngine(nil, nil)
	first := e.Apply(rec["title"], chain, rec)
	second := e.Apply(rec["title"], chain, rec)

	assert.Equal(t, "SHIRT ROSSO", first.String())
	assert.Equal(t, first, second)
	assert.Equal(t, "shirt", rec["title"].String())
	assert.Equal(t, "rosso", rec["color"].String())
}

func TestCaseTransformations(t *testing.T) {
	assert.Equal(t, "ABC DEF", apply(t, record.String("abc def"), &Uppercase{}).String())
	assert.Equal(t, "abc def", apply(t, record.String("ABC Def"), &Lowercase{}).String())
	assert.Equal(t, "Hello World  Foo", apply(t, record.String("hello WORLD  foo"), &Capitalize{}).String())
	assert.Equal(t, "abc", apply(t, record.String("  abc \n"), &Trim{}).String())
	assert.Equal(t, "ABC", apply(t, record.String("  abc  "), &Uppercase{}, &Trim{}).String())
	assert.Equal(t, "TRUE", apply(t, record.Bool(true), &Uppercase{}).String())
}

func TestNumberFormat(t *testing.T) {
	tests := []struct {
		name string
		in   record.Value
		step NumberFormat
		want string
	}{
		{"defaults", record.Number(1234567.891), NumberFormat{}, "1,234,567.89"},
		{"numeric string", record.String("1234.5"), NumberFormat{}, "1,234.50"},
		{"european", record.Number(1234567.891), NumberFormat{DecimalSeparator: ptr(","), ThousandsSeparator: ptr(".")}, "1.234.567,89"},
		{"no grouping", record.Number(1234567.891), NumberFormat{DecimalSeparator: ptr(","), ThousandsSeparator: ptr("")}, "1234567,89"},
		{"zero decimals", record.Number(2.5), NumberFormat{Decimals: ptr(0)}, "3"},
		{"negative", record.Number(-1234.5), NumberFormat{}, "-1,234.50"},
		{"small", record.Number(12), NumberFormat{Decimals: ptr(1)}, "12.0"},
		{"not a number", record.String("not-a-number"), NumberFormat{}, "not-a-number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := tt.step
			assert.Equal(t, tt.want, apply(t, tt.in, &step).String())
		})
	}
}

func TestDateFormat(t *testing.T) {
	in := record.String("2024-03-05T14:30:00Z")

	assert.Equal(t, "2024-03-05", apply(t, in, &DateFormat{}).String())
	assert.Equal(t, "05/03/2024 14:30", apply(t, in, &DateFormat{Format: "dd/MM/yyyy HH:mm"}).String())
	assert.Equal(t, "March 05, 2024", apply(t, in, &DateFormat{Format: "MMMM dd, yyyy"}).String())
	assert.Equal(t, "2024-03-05T14:30:00", apply(t, in, &DateFormat{Format: "yyyy-MM-dd'T'HH:mm:ss"}).String())
	assert.Equal(t, "1970-01-01", apply(t, record.Number(0), &DateFormat{}).String())

	invalid := record.String("definitely-not-a-date")
	assert.Equal(t, invalid, apply(t, invalid, &DateFormat{Format: "yyyy"}))

	assert.Equal(t, in, apply(t, in, &DateFormat{Format: "yyyy Q"}), "unknown tokens leave the value untouched")
}

func TestDateFormatUsesEngineLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	got := NewEngine(nil, rome).Apply(record.String("2024-03-05T23:30:00Z"), Chain{&DateFormat{Format: "yyyy-MM-dd HH:mm"}}, nil)
	assert.Equal(t, "2024-03-06 00:30", got.String())
}

func TestConcatenate(t *testing.T) {
	got := apply(t, record.String("X"), &Concatenate{Template: "Brand: {value} / {value}"})
	assert.Equal(t, "Brand: X / X", got.String())
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, "7.5", apply(t, record.String("10"), &Subtract{Value: 2.5}).String())
	assert.Equal(t, "2.5", apply(t, record.String("10"), &Divide{Value: 4}).String())
	assert.Equal(t, "122", apply(t, record.Number(100), &AddPercentage{Percentage: 22}).String())
	assert.Equal(t, "45", apply(t, record.Number(50), &SubtractPercentage{Percentage: 10}).String())

	ten := record.String("10")
	assert.Equal(t, ten, apply(t, ten, &Divide{Value: 0}), "divide by zero")

	word := record.String("free")
	assert.Equal(t, word, apply(t, word, &Add{Value: 1}))
	assert.Equal(t, word, apply(t, word, &AddPercentage{Percentage: 10}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abcde...", apply(t, record.String("abcdefgh"), &Truncate{MaxLength: 5, Ellipsis: true}).String())
	assert.Equal(t, "abcde", apply(t, record.String("abcdefgh"), &Truncate{MaxLength: 5}).String())
	assert.Equal(t, "abc", apply(t, record.String("abc"), &Truncate{MaxLength: 5, Ellipsis: true}).String())
	assert.Equal(t, "caffè", apply(t, record.String("caffèlatte"), &Truncate{MaxLength: 5}).String())
	assert.Equal(t, "ABC", apply(t, record.String("abcdef"), &Truncate{MaxLength: 3}, &Uppercase{}).String())
}

func TestReplace(t *testing.T) {
	in := record.String("red shirt, Red hat")

	assert.Equal(t, "Blue shirt, Blue hat", apply(t, in, &Replace{Search: "RED", Replace: "Blue", CaseInsensitive: true}).String())
	assert.Equal(t, "red shirt, Blue hat", apply(t, in, &Replace{Search: "Red", Replace: "Blue"}).String())
	assert.Equal(t, "10 cm", apply(t, record.String("10cm"), &Replace{Search: `(\d+)cm`, Replace: "$1 cm", Regex: true}).String())
	assert.Equal(t, "a-c-d", apply(t, record.String("a.c.d"), &Replace{Search: ".", Replace: "-"}).String(), "literal search escapes metacharacters")

	assert.Equal(t, in, apply(t, in, &Replace{Search: "([", Replace: "x", Regex: true}), "invalid regex")
}

func TestCombineFields(t *testing.T) {
	rec := record.Record{
		"color": record.String("Red"),
		"size":  record.String(""),
	}
	e := NewEngine(nil, nil)

	got := e.Apply(record.String("Shirt"), Chain{&CombineFields{Fields: []string{"color", "size", "missing"}, Separator: ptr(" - ")}}, rec)
	assert.Equal(t, "Shirt - Red", got.String())

	got = e.Apply(record.String("Shirt"), Chain{&CombineFields{Template: "{value} ({color}){missing}"}}, rec)
	assert.Equal(t, "Shirt (Red)", got.String())
}

func TestExtractSubstring(t *testing.T) {
	in := record.String("abcdef")

	assert.Equal(t, "abc", apply(t, in, &ExtractSubstring{Start: 0, End: ptr(3)}).String())
	assert.Equal(t, "cdef", apply(t, in, &ExtractSubstring{Start: 2}).String())
	assert.Equal(t, "cd", apply(t, in, &ExtractSubstring{Start: 4, End: ptr(2)}).String())
	assert.Equal(t, "ab", apply(t, in, &ExtractSubstring{Start: -3, End: ptr(2)}).String())
	assert.Equal(t, "", apply(t, in, &ExtractSubstring{Start: 10}).String())
}

func TestCustomRound(t *testing.T) {
	assert.Equal(t, "2.5", apply(t, record.Number(2.3), &CustomRound{Mode: RoundNearest, Nearest: 0.5}).String())
	assert.Equal(t, "3", apply(t, record.Number(2.5), &CustomRound{}).String())
	assert.Equal(t, "50", apply(t, record.Number(41), &CustomRound{Mode: RoundCeil, Nearest: 10}).String())
	assert.Equal(t, "40", apply(t, record.Number(49), &CustomRound{Mode: RoundFloor, Nearest: 10}).String())
	assert.Equal(t, "12.99", apply(t, record.String("12.4"), &CustomRound{Mode: RoundPricePoint, Ending: ".99"}).String())
	assert.Equal(t, "12.9", apply(t, record.Number(12.4), &CustomRound{Mode: RoundPricePoint, Ending: "90"}).String())
	assert.Equal(t, "-12.99", apply(t, record.Number(-12.34), &CustomRound{Mode: RoundPricePoint}).String())
	assert.Equal(t, "-0.99", apply(t, record.Number(-0.5), &CustomRound{Mode: RoundPricePoint}).String())

	odd := record.Number(1.2)
	assert.Equal(t, odd, apply(t, odd, &CustomRound{Mode: "banker"}))
}

func TestUnitConversion(t *testing.T) {
	assert.Equal(t, "25.4", apply(t, record.Number(10), &UnitConversion{Category: "length", Conversion: "in_to_cm"}).String())
	assert.Equal(t, "2000", apply(t, record.String("2"), &UnitConversion{Category: "weight", Conversion: "kg_to_g"}).String())

	in := record.Number(10)
	assert.Equal(t, in, apply(t, in, &UnitConversion{Category: "weight", Conversion: "in_to_cm"}))
	assert.Equal(t, in, apply(t, in, &UnitConversion{Category: "length", Conversion: "parsecs"}))
}

func TestConditionalMapping(t *testing.T) {
	step := &ConditionalMapping{
		Conditions: []Condition{
			{Operator: OpGreaterThan, Value: record.Number(100), Result: record.String("premium")},
			{Operator: OpStartsWith, Value: record.String("SALE"), Result: record.String("promo")},
			{Operator: OpContains, Value: record.String("gift"), Result: record.String("gift")},
		},
		Default: record.String("standard"),
	}

	assert.Equal(t, "premium", apply(t, record.Number(150), step).String())
	assert.Equal(t, "promo", apply(t, record.String("SALE-1"), step).String())
	assert.Equal(t, "gift", apply(t, record.String("a gift box"), step).String())
	assert.Equal(t, "standard", apply(t, record.Number(50), step).String())

	noDefault := &ConditionalMapping{Conditions: step.Conditions[:1]}
	assert.Equal(t, "abc", apply(t, record.String("abc"), noDefault).String())

	first := &ConditionalMapping{Conditions: []Condition{
		{Operator: OpEquals, Value: record.String("x"), Result: record.String("first")},
		{Operator: OpEquals, Value: record.String("x"), Result: record.String("second")},
		{Operator: OpNotEquals, Value: record.String("x"), Result: record.String("other")},
		{Operator: OpLessThan, Value: record.Number(0), Result: record.String("negative")},
		{Operator: OpEndsWith, Value: record.String("z"), Result: record.String("z")},
	}}
	assert.Equal(t, "first", apply(t, record.String("x"), first).String())
	assert.Equal(t, "other", apply(t, record.String("y"), first).String())
}

func TestColorNormalize(t *testing.T) {
	assert.Equal(t, "Red", apply(t, record.String("  Rosso "), &ColorNormalize{}).String())
	assert.Equal(t, "Black", apply(t, record.String("Schwarz"), &ColorNormalize{Language: "de"}).String())
	assert.Equal(t, "Gray", apply(t, record.String("grey"), &ColorNormalize{Language: "en"}).String())

	custom := &ColorNormalize{Language: "it", UseCustomMap: true, CustomMap: map[string]string{"Bordò": "Wine", "rosso": "Crimson"}}
	assert.Equal(t, "Wine", apply(t, record.String("bordò"), custom).String())
	assert.Equal(t, "Crimson", apply(t, record.String("ROSSO"), custom).String(), "custom map wins over the dictionary")

	disabled := &ColorNormalize{CustomMap: map[string]string{"rosso": "Crimson"}}
	assert.Equal(t, "Red", apply(t, record.String("rosso"), disabled).String())

	unknown := record.String("Fucsia")
	assert.Equal(t, unknown, apply(t, unknown, &ColorNormalize{}))
}

func TestDynamicURL(t *testing.T) {
	step := &DynamicURL{
		BaseURL:          "https://shop.example.com/p",
		AdditionalParams: map[string]string{"utm_source": "google", "utm_medium": "cpc"},
	}
	got := apply(t, record.String("A B&C"), step)
	assert.Equal(t, "https://shop.example.com/p?id=A%20B%26C&utm_medium=cpc&utm_source=google", got.String())

	withQuery := &DynamicURL{BaseURL: "https://shop.example.com/p?lang=it", ParamName: ptr("sku")}
	assert.Equal(t, "https://shop.example.com/p?lang=it&sku=42", apply(t, record.Number(42), withQuery).String())
}

func TestRemoveHTML(t *testing.T) {
	got := apply(t, record.String(`<p class="x">Hello <b>World</b></p>`), &RemoveHTML{})
	assert.Equal(t, "Hello World", got.String())
}

func TestValueMapping(t *testing.T) {
	mappings := map[string]string{"M": "Medium", "L": "Large"}

	assert.Equal(t, "Medium", apply(t, record.String("m"), &ValueMapping{Mappings: mappings}).String())
	assert.Equal(t, "m", apply(t, record.String("m"), &ValueMapping{Mappings: mappings, CaseSensitive: true}).String())
	assert.Equal(t, "XL", apply(t, record.String("XL"), &ValueMapping{Mappings: mappings}).String())
	assert.Equal(t, "", apply(t, record.String("XL"), &ValueMapping{Mappings: mappings, KeepOriginal: ptr(false)}).String())
}

func TestCurrencyConversion(t *testing.T) {
	manual := &CurrencyConversion{From: "EUR", To: "USD", ManualRate: ptr(Amount(1.1)), Format: true, Decimals: ptr(2)}
	assert.Equal(t, "110.00", apply(t, record.Number(100), manual).String())

	rates := RateTable{}
	rates.Set("eur", "usd", 1.2)
	e := NewEngine(rates, nil)

	got := e.Apply(record.String("100"), Chain{&CurrencyConversion{From: "EUR", To: "USD"}}, nil)
	assert.Equal(t, record.KindNumber, got.Kind())
	assert.Equal(t, "120", got.String())

	official := &CurrencyConversion{From: "EUR", To: "USD", UseOfficial: true, ManualRate: ptr(Amount(2)), Format: true}
	assert.Equal(t, "120.00", e.Apply(record.Number(100), Chain{official}, nil).String())

	missing := record.Number(100)
	assert.Equal(t, missing, e.Apply(missing, Chain{&CurrencyConversion{From: "EUR", To: "GBP"}}, nil))
	assert.Equal(t, missing, apply(t, missing, &CurrencyConversion{From: "EUR", To: "USD"}), "no rate table")

	same := &CurrencyConversion{From: "EUR", To: "eur", Format: true}
	assert.Equal(t, "100.00", apply(t, missing, same).String())
}

func TestChainDecodeYAML(t *testing.T) {
	input := `
- type: add
  params:
    value: 5
- type: multiply
  params:
    value: "2"
- uppercase
- type: conditional_mapping
  params:
    conditions:
      - operator: equals
        value: 16
        result: sixteen
`
	var chain Chain
	require.NoError(t, yaml.Unmarshal([]byte(input), &chain))
	require.Len(t, chain, 4)

	assert.Equal(t, TypeAdd, chain[0].Type())
	assert.Equal(t, Amount(2), chain[1].(*Multiply).Value)

	got := NewEngine(nil, nil).Apply(record.String("3"), chain, nil)
	assert.Equal(t, "sixteen", got.String())
}

func TestChainDecodeUnknownType(t *testing.T) {
	var chain Chain
	err := yaml.Unmarshal([]byte("- type: rot13\n"), &chain)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)

	err = json.Unmarshal([]byte(`[{"type":"rot13"}]`), &chain)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestChainDecodeJSON(t *testing.T) {
	input := `[{"type":"currency_conversion","params":{"from":"EUR","to":"USD","manualRate":1.1,"format":true,"decimals":2}}]`

	var chain Chain
	require.NoError(t, json.Unmarshal([]byte(input), &chain))

	got := NewEngine(nil, nil).Apply(record.Number(100), chain, nil)
	assert.Equal(t, "110.00", got.String())
}

func TestChainYAMLRoundTrip(t *testing.T) {
	chain := Chain{
		&Truncate{MaxLength: 10, Ellipsis: true},
		&NumberFormat{Decimals: ptr(1), ThousandsSeparator: ptr("")},
		&Trim{},
	}

	data, err := yaml.Marshal(chain)
	require.NoError(t, err)

	var decoded Chain
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, chain, decoded)
}

func TestEveryTypeIsRegistered(t *testing.T) {
	for _, typ := range Types() {
		step, err := New(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, step.Type())
	}
	assert.Len(t, Types(), 26)
}
