// Package transform rewrites a single field value through an ordered chain of
// typed transformation steps.
//
// Every step is total: input a step cannot handle (a non-numeric string fed to
// an arithmetic step, an invalid regular expression, an unparsable date, a
// missing exchange rate) comes back unchanged.
package transform

import (
	"errors"
	"strings"
	"time"

	"github.com/lysyi3m/product-feeds/app/record"
)

type Type string

const (
	TypeNone               Type = "none"
	TypeUppercase          Type = "uppercase"
	TypeLowercase          Type = "lowercase"
	TypeCapitalize         Type = "capitalize"
	TypeTrim               Type = "trim"
	TypeNumberFormat       Type = "number_format"
	TypeDateFormat         Type = "date_format"
	TypeConcatenate        Type = "concatenate"
	TypeAdd                Type = "add"
	TypeSubtract           Type = "subtract"
	TypeMultiply           Type = "multiply"
	TypeDivide             Type = "divide"
	TypeAddPercentage      Type = "add_percentage"
	TypeSubtractPercentage Type = "subtract_percentage"
	TypeTruncate           Type = "truncate"
	TypeReplace            Type = "replace"
	TypeCombineFields      Type = "combine_fields"
	TypeExtractSubstring   Type = "extract_substring"
	TypeCustomRound        Type = "custom_round"
	TypeUnitConversion     Type = "unit_conversion"
	TypeConditionalMapping Type = "conditional_mapping"
	TypeColorNormalize     Type = "color_normalize"
	TypeDynamicURL         Type = "dynamic_url"
	TypeRemoveHTML         Type = "remove_html"
	TypeValueMapping       Type = "value_mapping"
	TypeCurrencyConversion Type = "currency_conversion"
)

var ErrUnknownType = errors.New("unknown transformation type")

// Transformation is one step of a chain. Implementations are the typed
// parameter structs in this package.
type Transformation interface {
	Type() Type
	Apply(v record.Value, env *Env) record.Value
}

// Env carries the inputs a step may need beyond the value itself.
type Env struct {
	// Record is the full source record; only combine_fields reads it.
	Record   record.Record
	Rates    RateLookup
	Location *time.Location
}

// RateLookup resolves an exchange rate for a currency pair.
type RateLookup interface {
	GetRate(base, target string) (float64, bool)
}

// RateTable is an in-memory RateLookup keyed by "BASE_TARGET".
type RateTable map[string]float64

func RateKey(base, target string) string {
	return strings.ToUpper(base) + "_" + strings.ToUpper(target)
}

func (rt RateTable) GetRate(base, target string) (float64, bool) {
	rate, ok := rt[RateKey(base, target)]
	return rate, ok
}

func (rt RateTable) Set(base, target string, rate float64) {
	rt[RateKey(base, target)] = rate
}

type Engine struct {
	rates    RateLookup
	location *time.Location
}

// NewEngine builds an engine. A nil location means UTC; a nil rate lookup
// leaves currency conversions without a manual rate untouched.
func NewEngine(rates RateLookup, location *time.Location) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{
		rates:    rates,
		location: location,
	}
}

// Apply runs the chain in order, feeding each step the previous result.
// Null input skips every step except combine_fields.
func (e *Engine) Apply(v record.Value, chain Chain, rec record.Record) record.Value {
	if len(chain) == 0 {
		return v
	}

	env := &Env{
		Record:   rec,
		Rates:    e.rates,
		Location: e.location,
	}

	for _, step := range chain {
		if step == nil {
			continue
		}
		if v.IsNull() && step.Type() != TypeCombineFields {
			continue
		}
		v = step.Apply(v, env)
	}

	return v
}

// None leaves the value untouched.
type None struct{}

func (None) Type() Type { return TypeNone }

func (None) Apply(v record.Value, _ *Env) record.Value { return v }
