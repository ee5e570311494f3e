package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var registry = map[Type]func() Transformation{
	TypeNone:               func() Transformation { return &None{} },
	TypeUppercase:          func() Transformation { return &Uppercase{} },
	TypeLowercase:          func() Transformation { return &Lowercase{} },
	TypeCapitalize:         func() Transformation { return &Capitalize{} },
	TypeTrim:               func() Transformation { return &Trim{} },
	TypeNumberFormat:       func() Transformation { return &NumberFormat{} },
	TypeDateFormat:         func() Transformation { return &DateFormat{} },
	TypeConcatenate:        func() Transformation { return &Concatenate{} },
	TypeAdd:                func() Transformation { return &Add{} },
	TypeSubtract:           func() Transformation { return &Subtract{} },
	TypeMultiply:           func() Transformation { return &Multiply{} },
	TypeDivide:             func() Transformation { return &Divide{} },
	TypeAddPercentage:      func() Transformation { return &AddPercentage{} },
	TypeSubtractPercentage: func() Transformation { return &SubtractPercentage{} },
	TypeTruncate:           func() Transformation { return &Truncate{} },
	TypeReplace:            func() Transformation { return &Replace{} },
	TypeCombineFields:      func() Transformation { return &CombineFields{} },
	TypeExtractSubstring:   func() Transformation { return &ExtractSubstring{} },
	TypeCustomRound:        func() Transformation { return &CustomRound{} },
	TypeUnitConversion:     func() Transformation { return &UnitConversion{} },
	TypeConditionalMapping: func() Transformation { return &ConditionalMapping{} },
	TypeColorNormalize:     func() Transformation { return &ColorNormalize{} },
	TypeDynamicURL:         func() Transformation { return &DynamicURL{} },
	TypeRemoveHTML:         func() Transformation { return &RemoveHTML{} },
	TypeValueMapping:       func() Transformation { return &ValueMapping{} },
	TypeCurrencyConversion: func() Transformation { return &CurrencyConversion{} },
}

// New returns a zero-parameter step of the given type.
func New(t Type) (Transformation, error) {
	factory, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return factory(), nil
}

// Types lists every registered transformation type in name order.
func Types() []Type {
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Chain is an ordered list of steps. On the wire each step is
// {type: ..., params: {...}}; YAML also accepts a bare type name.
type Chain []Transformation

type yamlStep struct {
	Type   Type      `yaml:"type"`
	Params yaml.Node `yaml:"params"`
}

func (c *Chain) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: transformations must be a list", node.Line)
	}

	chain := make(Chain, 0, len(node.Content))
	for i, item := range node.Content {
		var raw yamlStep
		switch item.Kind {
		case yaml.ScalarNode:
			raw.Type = Type(item.Value)
		case yaml.MappingNode:
			if err := item.Decode(&raw); err != nil {
				return fmt.Errorf("transformation %d: %w", i, err)
			}
		default:
			return fmt.Errorf("line %d: transformation %d must be a mapping or a type name", item.Line, i)
		}

		step, err := New(raw.Type)
		if err != nil {
			return fmt.Errorf("line %d: transformation %d: %w", item.Line, i, err)
		}
		if raw.Params.Kind != 0 {
			if err := raw.Params.Decode(step); err != nil {
				return fmt.Errorf("line %d: %s params: %w", item.Line, raw.Type, err)
			}
		}
		chain = append(chain, step)
	}

	*c = chain
	return nil
}

func (c Chain) MarshalYAML() (any, error) {
	out := make([]map[string]any, 0, len(c))
	for _, step := range c {
		out = append(out, map[string]any{
			"type":   string(step.Type()),
			"params": step,
		})
	}
	return out, nil
}

type jsonStep struct {
	Type   Type            `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (c *Chain) UnmarshalJSON(data []byte) error {
	var raw []jsonStep
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transformations must be a list: %w", err)
	}

	chain := make(Chain, 0, len(raw))
	for i, r := range raw {
		step, err := New(r.Type)
		if err != nil {
			return fmt.Errorf("transformation %d: %w", i, err)
		}
		if len(r.Params) > 0 && !bytes.Equal(r.Params, []byte("null")) {
			if err := json.Unmarshal(r.Params, step); err != nil {
				return fmt.Errorf("transformation %d: %s params: %w", i, r.Type, err)
			}
		}
		chain = append(chain, step)
	}

	*c = chain
	return nil
}

func (c Chain) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(c))
	for _, step := range c {
		out = append(out, map[string]any{
			"type":   step.Type(),
			"params": step,
		})
	}
	return json.Marshal(out)
}

// Amount is a numeric parameter. It accepts numbers and numeric strings so
// hand-written templates may quote their values.
type Amount float64

func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(a))
}

func parseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return Amount(f), nil
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	if node.Tag == "!!null" {
		*a = 0
		return nil
	}
	parsed, err := parseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = parsed
	return nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseAmount(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected a number: %w", err)
	}
	*a = Amount(f)
	return nil
}
