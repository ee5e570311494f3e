package transform

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/lysyi3m/product-feeds/app/record"
)

const (
	OpEquals      = "equals"
	OpNotEquals   = "notEquals"
	OpGreaterThan = "greaterThan"
	OpLessThan    = "lessThan"
	OpContains    = "contains"
	OpStartsWith  = "startsWith"
	OpEndsWith    = "endsWith"
)

type Condition struct {
	Operator string       `yaml:"operator" json:"operator"`
	Value    record.Value `yaml:"value" json:"value"`
	Result   record.Value `yaml:"result" json:"result"`
}

func (c Condition) matches(v record.Value) bool {
	got, want := v.String(), c.Value.String()

	switch c.Operator {
	case OpEquals:
		return got == want
	case OpNotEquals:
		return got != want
	case OpGreaterThan, OpLessThan:
		a, okA := v.Float()
		b, okB := c.Value.Float()
		if !okA || !okB {
			return false
		}
		if c.Operator == OpGreaterThan {
			return a > b
		}
		return a < b
	case OpContains:
		return strings.Contains(got, want)
	case OpStartsWith:
		return strings.HasPrefix(got, want)
	case OpEndsWith:
		return strings.HasSuffix(got, want)
	default:
		return false
	}
}

// ConditionalMapping returns the result of the first matching condition, then
// Default, then the original value.
type ConditionalMapping struct {
	Conditions []Condition  `yaml:"conditions" json:"conditions"`
	Default    record.Value `yaml:"default,omitempty" json:"default,omitempty"`
}

func (ConditionalMapping) Type() Type { return TypeConditionalMapping }

func (c ConditionalMapping) Apply(v record.Value, _ *Env) record.Value {
	for _, cond := range c.Conditions {
		if cond.matches(v) {
			return cond.Result
		}
	}
	if !c.Default.IsAbsent() {
		return c.Default
	}
	return v
}

// ValueMapping looks the value up in Mappings. Unmapped values are kept unless
// KeepOriginal is explicitly false, in which case they become empty.
type ValueMapping struct {
	Mappings      map[string]string `yaml:"mappings" json:"mappings"`
	CaseSensitive bool              `yaml:"caseSensitive,omitempty" json:"caseSensitive,omitempty"`
	KeepOriginal  *bool             `yaml:"keepOriginal,omitempty" json:"keepOriginal,omitempty"`
}

func (ValueMapping) Type() Type { return TypeValueMapping }

func (m ValueMapping) Apply(v record.Value, _ *Env) record.Value {
	key := v.String()
	if mapped, ok := m.Mappings[key]; ok {
		return record.String(mapped)
	}
	if !m.CaseSensitive {
		if mapped, ok := lookupFold(m.Mappings, key); ok {
			return record.String(mapped)
		}
	}

	if m.KeepOriginal != nil && !*m.KeepOriginal {
		return record.String("")
	}
	return v
}

// lookupFold finds a key ignoring case. Keys are scanned in sorted order so
// ambiguous tables resolve the same way every time.
func lookupFold(table map[string]string, key string) (string, bool) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return table[k], true
		}
	}
	return "", false
}

// ColorNormalize translates a color name from Language into its canonical
// English name. A custom map, when enabled, is consulted first.
type ColorNormalize struct {
	Language     string            `yaml:"language,omitempty" json:"language,omitempty"`
	UseCustomMap bool              `yaml:"useCustomMap,omitempty" json:"useCustomMap,omitempty"`
	CustomMap    map[string]string `yaml:"customMap,omitempty" json:"customMap,omitempty"`
}

func (ColorNormalize) Type() Type { return TypeColorNormalize }

func (c ColorNormalize) Apply(v record.Value, _ *Env) record.Value {
	key := strings.ToLower(strings.TrimSpace(v.String()))
	if key == "" {
		return v
	}

	if c.UseCustomMap {
		if mapped, ok := lookupFold(c.CustomMap, key); ok {
			return record.String(mapped)
		}
	}

	if mapped, ok := colorDictionary[colorLanguage(c.Language)][key]; ok {
		return record.String(mapped)
	}
	return v
}

func colorLanguage(lang string) string {
	if lang == "" {
		return "it"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

var colorDictionary = map[string]map[string]string{
	"it": {
		"nero": "Black", "bianco": "White", "rosso": "Red", "blu": "Blue",
		"azzurro": "Light Blue", "celeste": "Light Blue", "verde": "Green",
		"giallo": "Yellow", "arancione": "Orange", "rosa": "Pink", "viola": "Purple",
		"marrone": "Brown", "grigio": "Gray", "beige": "Beige", "oro": "Gold",
		"argento": "Silver", "blu navy": "Navy", "bordeaux": "Burgundy",
		"multicolore": "Multicolor", "trasparente": "Transparent",
	},
	"en": {
		"black": "Black", "white": "White", "red": "Red", "blue": "Blue",
		"light blue": "Light Blue", "green": "Green", "yellow": "Yellow",
		"orange": "Orange", "pink": "Pink", "purple": "Purple", "violet": "Purple",
		"brown": "Brown", "gray": "Gray", "grey": "Gray", "beige": "Beige",
		"gold": "Gold", "silver": "Silver", "navy": "Navy", "navy blue": "Navy",
		"burgundy": "Burgundy", "multicolor": "Multicolor", "multicolour": "Multicolor",
		"transparent": "Transparent",
	},
	"fr": {
		"noir": "Black", "blanc": "White", "rouge": "Red", "bleu": "Blue",
		"bleu clair": "Light Blue", "vert": "Green", "jaune": "Yellow",
		"orange": "Orange", "rose": "Pink", "violet": "Purple", "marron": "Brown",
		"gris": "Gray", "beige": "Beige", "or": "Gold", "doré": "Gold",
		"argent": "Silver", "argenté": "Silver", "bleu marine": "Navy",
		"bordeaux": "Burgundy", "multicolore": "Multicolor", "transparent": "Transparent",
	},
	"de": {
		"schwarz": "Black", "weiß": "White", "weiss": "White", "rot": "Red",
		"blau": "Blue", "hellblau": "Light Blue", "grün": "Green", "gruen": "Green",
		"gelb": "Yellow", "orange": "Orange", "rosa": "Pink", "lila": "Purple",
		"violett": "Purple", "braun": "Brown", "grau": "Gray", "beige": "Beige",
		"gold": "Gold", "silber": "Silver", "marineblau": "Navy", "bordeaux": "Burgundy",
		"mehrfarbig": "Multicolor", "transparent": "Transparent",
	},
	"es": {
		"negro": "Black", "blanco": "White", "rojo": "Red", "azul": "Blue",
		"celeste": "Light Blue", "azul claro": "Light Blue", "verde": "Green",
		"amarillo": "Yellow", "naranja": "Orange", "rosa": "Pink", "morado": "Purple",
		"violeta": "Purple", "marrón": "Brown", "marron": "Brown", "gris": "Gray",
		"beige": "Beige", "dorado": "Gold", "plateado": "Silver", "azul marino": "Navy",
		"burdeos": "Burgundy", "multicolor": "Multicolor", "transparente": "Transparent",
	},
}

// DynamicURL appends the value as a query parameter to BaseURL, followed by
// AdditionalParams in key order.
type DynamicURL struct {
	BaseURL          string            `yaml:"baseUrl" json:"baseUrl"`
	ParamName        *string           `yaml:"paramName,omitempty" json:"paramName,omitempty"`
	AdditionalParams map[string]string `yaml:"additionalParams,omitempty" json:"additionalParams,omitempty"`
}

func (DynamicURL) Type() Type { return TypeDynamicURL }

func (d DynamicURL) Apply(v record.Value, _ *Env) record.Value {
	if d.BaseURL == "" {
		return v
	}

	paramName := "id"
	if d.ParamName != nil {
		paramName = *d.ParamName
	}

	var params []string
	if paramName != "" {
		params = append(params, encodeComponent(paramName)+"="+encodeComponent(v.String()))
	}

	keys := make([]string, 0, len(d.AdditionalParams))
	for k := range d.AdditionalParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params = append(params, encodeComponent(k)+"="+encodeComponent(d.AdditionalParams[k]))
	}

	if len(params) == 0 {
		return record.String(d.BaseURL)
	}

	sep := "?"
	if strings.Contains(d.BaseURL, "?") {
		sep = "&"
	}
	return record.String(d.BaseURL + sep + strings.Join(params, "&"))
}

// encodeComponent percent-encodes s with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
