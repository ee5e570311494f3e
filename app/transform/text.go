package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/product-feeds/app/record"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

type Uppercase struct{}

func (Uppercase) Type() Type { return TypeUppercase }

func (Uppercase) Apply(v record.Value, _ *Env) record.Value {
	return record.String(upperCaser.String(v.String()))
}

type Lowercase struct{}

func (Lowercase) Type() Type { return TypeLowercase }

func (Lowercase) Apply(v record.Value, _ *Env) record.Value {
	return record.String(lowerCaser.String(v.String()))
}

// Capitalize upper-cases the first letter of every space separated word and
// lower-cases the rest. Runs of spaces are preserved.
type Capitalize struct{}

func (Capitalize) Type() Type { return TypeCapitalize }

func (Capitalize) Apply(v record.Value, _ *Env) record.Value {
	words := strings.Split(v.String(), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(word)
		words[i] = upperCaser.String(word[:size]) + lowerCaser.String(word[size:])
	}
	return record.String(strings.Join(words, " "))
}

type Trim struct{}

func (Trim) Type() Type { return TypeTrim }

func (Trim) Apply(v record.Value, _ *Env) record.Value {
	return record.String(strings.TrimSpace(v.String()))
}

// Concatenate substitutes every {value} token in Template.
type Concatenate struct {
	Template string `yaml:"template" json:"template"`
}

func (Concatenate) Type() Type { return TypeConcatenate }

func (c Concatenate) Apply(v record.Value, _ *Env) record.Value {
	return record.String(strings.ReplaceAll(c.Template, "{value}", v.String()))
}

type Truncate struct {
	MaxLength int  `yaml:"maxLength" json:"maxLength"`
	Ellipsis  bool `yaml:"ellipsis" json:"ellipsis"`
}

func (Truncate) Type() Type { return TypeTruncate }

func (t Truncate) Apply(v record.Value, _ *Env) record.Value {
	if t.MaxLength <= 0 {
		return v
	}

	s := v.String()
	runes := []rune(s)
	if len(runes) <= t.MaxLength {
		return record.String(s)
	}

	out := string(runes[:t.MaxLength])
	if t.Ellipsis {
		out += "..."
	}
	return record.String(out)
}

// Replace rewrites every occurrence of Search. Search is a regular expression
// when Regex is set and a literal otherwise.
type Replace struct {
	Search          string `yaml:"search" json:"search"`
	Replace         string `yaml:"replace" json:"replace"`
	Regex           bool   `yaml:"regex" json:"regex"`
	CaseInsensitive bool   `yaml:"caseInsensitive" json:"caseInsensitive"`
}

func (Replace) Type() Type { return TypeReplace }

func (r Replace) Apply(v record.Value, _ *Env) record.Value {
	if r.Search == "" {
		return v
	}

	pattern := r.Search
	if !r.Regex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if r.CaseInsensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return v
	}

	if r.Regex {
		return record.String(re.ReplaceAllString(v.String(), r.Replace))
	}
	return record.String(re.ReplaceAllLiteralString(v.String(), r.Replace))
}

// ExtractSubstring keeps the characters in [Start, End). Out of range indexes
// are clamped and reversed bounds are swapped.
type ExtractSubstring struct {
	Start int  `yaml:"start" json:"start"`
	End   *int `yaml:"end,omitempty" json:"end,omitempty"`
}

func (ExtractSubstring) Type() Type { return TypeExtractSubstring }

func (e ExtractSubstring) Apply(v record.Value, _ *Env) record.Value {
	runes := []rune(v.String())

	clamp := func(i int) int {
		return max(0, min(i, len(runes)))
	}

	start := clamp(e.Start)
	end := len(runes)
	if e.End != nil {
		end = clamp(*e.End)
	}
	if start > end {
		start, end = end, start
	}

	return record.String(string(runes[start:end]))
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

type RemoveHTML struct{}

func (RemoveHTML) Type() Type { return TypeRemoveHTML }

func (RemoveHTML) Apply(v record.Value, _ *Env) record.Value {
	return record.String(htmlTag.ReplaceAllString(v.String(), ""))
}

var templateToken = regexp.MustCompile(`\{([^{}]+)\}`)

// CombineFields merges the value with other fields of the same record.
// With a Template, {value} and {fieldName} tokens are substituted; otherwise
// the non-empty values are joined with Separator.
type CombineFields struct {
	Fields    []string `yaml:"fields" json:"fields"`
	Separator *string  `yaml:"separator,omitempty" json:"separator,omitempty"`
	Template  string   `yaml:"template,omitempty" json:"template,omitempty"`
}

func (CombineFields) Type() Type { return TypeCombineFields }

func (c CombineFields) Apply(v record.Value, env *Env) record.Value {
	var rec record.Record
	if env != nil {
		rec = env.Record
	}

	if c.Template != "" {
		out := templateToken.ReplaceAllStringFunc(c.Template, func(token string) string {
			name := token[1 : len(token)-1]
			if name == "value" {
				return v.String()
			}
			if field, ok := rec.Get(name); ok {
				return field.String()
			}
			return ""
		})
		return record.String(out)
	}

	separator := " "
	if c.Separator != nil {
		separator = *c.Separator
	}

	parts := make([]string, 0, len(c.Fields)+1)
	if !v.IsAbsent() {
		parts = append(parts, v.String())
	}
	for _, name := range c.Fields {
		if field, ok := rec.Get(name); ok && !field.IsAbsent() {
			parts = append(parts, field.String())
		}
	}

	return record.String(strings.Join(parts, separator))
}
