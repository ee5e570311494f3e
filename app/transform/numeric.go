package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-feeds/app/record"
)

const defaultDecimals = 2

// numeric reads the value as a finite number.
func numeric(v record.Value) (decimal.Decimal, bool) {
	f, ok := v.Float()
	if !ok || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

func toValue(d decimal.Decimal) record.Value {
	f, _ := d.Float64()
	return record.Number(f)
}

func decimalsOr(p *int) int32 {
	if p == nil {
		return defaultDecimals
	}
	return int32(max(0, min(*p, 20)))
}

// NumberFormat renders a number with fixed decimals and custom separators.
type NumberFormat struct {
	Decimals           *int    `yaml:"decimals,omitempty" json:"decimals,omitempty"`
	DecimalSeparator   *string `yaml:"decimalSeparator,omitempty" json:"decimalSeparator,omitempty"`
	ThousandsSeparator *string `yaml:"thousandsSeparator,omitempty" json:"thousandsSeparator,omitempty"`
}

func (NumberFormat) Type() Type { return TypeNumberFormat }

func (n NumberFormat) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}

	decimalSep, thousandsSep := ".", ","
	if n.DecimalSeparator != nil {
		decimalSep = *n.DecimalSeparator
	}
	if n.ThousandsSeparator != nil {
		thousandsSep = *n.ThousandsSeparator
	}

	fixed := d.StringFixed(decimalsOr(n.Decimals))
	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")

	out := groupThousands(intPart, thousandsSep)
	if hasFrac {
		out += decimalSep + fracPart
	}
	return record.String(out)
}

func groupThousands(digits, sep string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if sep == "" || len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

type Add struct {
	Value Amount `yaml:"value" json:"value"`
}

func (Add) Type() Type { return TypeAdd }

func (a Add) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Add(a.Value.Decimal()))
}

type Subtract struct {
	Value Amount `yaml:"value" json:"value"`
}

func (Subtract) Type() Type { return TypeSubtract }

func (s Subtract) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Sub(s.Value.Decimal()))
}

type Multiply struct {
	Value Amount `yaml:"value" json:"value"`
}

func (Multiply) Type() Type { return TypeMultiply }

func (m Multiply) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Mul(m.Value.Decimal()))
}

type Divide struct {
	Value Amount `yaml:"value" json:"value"`
}

func (Divide) Type() Type { return TypeDivide }

func (dv Divide) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok || dv.Value == 0 {
		return v
	}
	return toValue(d.Div(dv.Value.Decimal()))
}

type AddPercentage struct {
	Percentage Amount `yaml:"percentage" json:"percentage"`
}

func (AddPercentage) Type() Type { return TypeAddPercentage }

func (p AddPercentage) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Add(percentOf(d, p.Percentage)))
}

type SubtractPercentage struct {
	Percentage Amount `yaml:"percentage" json:"percentage"`
}

func (SubtractPercentage) Type() Type { return TypeSubtractPercentage }

func (p SubtractPercentage) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Sub(percentOf(d, p.Percentage)))
}

func percentOf(d decimal.Decimal, pct Amount) decimal.Decimal {
	return d.Mul(pct.Decimal()).Div(decimal.NewFromInt(100))
}

const (
	RoundNearest    = "nearest"
	RoundCeil       = "ceil"
	RoundFloor      = "floor"
	RoundPricePoint = "pricePoint"
)

// CustomRound rounds to a multiple of Nearest, or for pricePoint keeps the
// integer part and appends Ending.
type CustomRound struct {
	Mode    string `yaml:"type" json:"type"`
	Nearest Amount `yaml:"nearest,omitempty" json:"nearest,omitempty"`
	Ending  string `yaml:"ending,omitempty" json:"ending,omitempty"`
}

func (CustomRound) Type() Type { return TypeCustomRound }

func (c CustomRound) Apply(v record.Value, _ *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}

	if c.Mode == RoundPricePoint {
		ending := c.Ending
		if ending == "" {
			ending = ".99"
		}
		if !strings.HasPrefix(ending, ".") {
			ending = "." + ending
		}
		whole := d.Truncate(0).String()
		if d.IsNegative() && !strings.HasPrefix(whole, "-") {
			whole = "-" + whole
		}
		f, err := strconv.ParseFloat(whole+ending, 64)
		if err != nil {
			return v
		}
		return record.Number(f)
	}

	step := c.Nearest.Decimal()
	if !step.IsPositive() {
		step = decimal.NewFromInt(1)
	}

	q := d.Div(step)
	switch c.Mode {
	case RoundCeil:
		q = q.Ceil()
	case RoundFloor:
		q = q.Floor()
	case RoundNearest, "":
		q = q.Round(0)
	default:
		return v
	}
	return toValue(q.Mul(step))
}

var unitFactors = map[string]map[string]float64{
	"length": {
		"in_to_cm": 2.54,
		"cm_to_in": 1 / 2.54,
		"ft_to_cm": 30.48,
		"cm_to_ft": 1 / 30.48,
		"m_to_ft":  3.28084,
		"ft_to_m":  0.3048,
		"m_to_cm":  100,
		"cm_to_m":  0.01,
	},
	"weight": {
		"lb_to_kg": 0.45359237,
		"kg_to_lb": 2.20462262,
		"oz_to_g":  28.349523125,
		"g_to_oz":  0.0352739619,
		"kg_to_g":  1000,
		"g_to_kg":  0.001,
	},
}

// UnitConversion multiplies by the factor registered for Category/Conversion.
type UnitConversion struct {
	Category   string `yaml:"type" json:"type"`
	Conversion string `yaml:"conversion" json:"conversion"`
}

func (UnitConversion) Type() Type { return TypeUnitConversion }

func (u UnitConversion) Apply(v record.Value, _ *Env) record.Value {
	factor, ok := unitFactors[u.Category][u.Conversion]
	if !ok {
		return v
	}
	d, ok := numeric(v)
	if !ok {
		return v
	}
	return toValue(d.Mul(decimal.NewFromFloat(factor)))
}

// CurrencyConversion multiplies by the From→To rate. A positive ManualRate is
// used unless UseOfficial is set, in which case the rate table goes first.
type CurrencyConversion struct {
	From        string  `yaml:"from" json:"from"`
	To          string  `yaml:"to" json:"to"`
	UseOfficial bool    `yaml:"useOfficial,omitempty" json:"useOfficial,omitempty"`
	ManualRate  *Amount `yaml:"manualRate,omitempty" json:"manualRate,omitempty"`
	Format      bool    `yaml:"format,omitempty" json:"format,omitempty"`
	Decimals    *int    `yaml:"decimals,omitempty" json:"decimals,omitempty"`
}

func (CurrencyConversion) Type() Type { return TypeCurrencyConversion }

func (c CurrencyConversion) Apply(v record.Value, env *Env) record.Value {
	d, ok := numeric(v)
	if !ok {
		return v
	}

	rate, ok := c.resolveRate(env)
	if !ok {
		return v
	}

	converted := d.Mul(rate)
	if c.Format {
		return record.String(converted.StringFixed(decimalsOr(c.Decimals)))
	}
	return toValue(converted)
}

func (c CurrencyConversion) resolveRate(env *Env) (decimal.Decimal, bool) {
	if c.From != "" && strings.EqualFold(c.From, c.To) {
		return decimal.NewFromInt(1), true
	}

	manual := func() (decimal.Decimal, bool) {
		if c.ManualRate == nil || *c.ManualRate <= 0 {
			return decimal.Decimal{}, false
		}
		return c.ManualRate.Decimal(), true
	}
	table := func() (decimal.Decimal, bool) {
		if env == nil || env.Rates == nil || c.From == "" || c.To == "" {
			return decimal.Decimal{}, false
		}
		rate, ok := env.Rates.GetRate(c.From, c.To)
		if !ok || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(rate), true
	}

	first, second := manual, table
	if c.UseOfficial {
		first, second = table, manual
	}
	if rate, ok := first(); ok {
		return rate, true
	}
	return second()
}
