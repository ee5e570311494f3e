package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lysyi3m/product-feeds/app/record"
)

const defaultDatePattern = "yyyy-MM-dd"

// DateFormat parses the value as a date and renders it with a pattern made of
// yyyy, MM, dd, HH, mm, ss style tokens. Text in single quotes is literal.
type DateFormat struct {
	Format string `yaml:"format" json:"format"`
}

func (DateFormat) Type() Type { return TypeDateFormat }

func (d DateFormat) Apply(v record.Value, env *Env) record.Value {
	loc := time.UTC
	if env != nil && env.Location != nil {
		loc = env.Location
	}

	t, err := parseDate(v, loc)
	if err != nil {
		return v
	}

	pattern := d.Format
	if pattern == "" {
		pattern = defaultDatePattern
	}

	out, err := formatDate(t.In(loc), pattern)
	if err != nil {
		return v
	}
	return record.String(out)
}

// parseDate accepts epoch milliseconds for numbers and any layout dateparse
// recognises for strings.
func parseDate(v record.Value, loc *time.Location) (time.Time, error) {
	switch v.Kind() {
	case record.KindNumber:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, errors.New("invalid timestamp")
		}
		return time.UnixMilli(int64(f)), nil
	case record.KindString:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return time.Time{}, errors.New("empty date")
		}
		return dateparse.ParseIn(s, loc)
	default:
		return time.Time{}, fmt.Errorf("cannot parse %s as date", v.Kind())
	}
}

func formatDate(t time.Time, pattern string) (string, error) {
	var b strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '\'' {
			// '' is an escaped quote, otherwise read up to the closing quote.
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						b.WriteRune('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}

		if !isPatternLetter(r) {
			b.WriteRune(r)
			i++
			continue
		}

		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		token, err := renderToken(t, r, j-i)
		if err != nil {
			return "", err
		}
		b.WriteString(token)
		i = j
	}

	return b.String(), nil
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func renderToken(t time.Time, letter rune, n int) (string, error) {
	pad := func(v int) string {
		s := strconv.Itoa(v)
		for len(s) < n {
			s = "0" + s
		}
		return s
	}

	switch letter {
	case 'y':
		if n == 2 {
			return fmt.Sprintf("%02d", t.Year()%100), nil
		}
		return pad(t.Year()), nil
	case 'M':
		switch {
		case n >= 4:
			return t.Month().String(), nil
		case n == 3:
			return t.Month().String()[:3], nil
		default:
			return pad(int(t.Month())), nil
		}
	case 'd':
		return pad(t.Day()), nil
	case 'E':
		if n >= 4 {
			return t.Weekday().String(), nil
		}
		return t.Weekday().String()[:3], nil
	case 'H':
		return pad(t.Hour()), nil
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h), nil
	case 'm':
		return pad(t.Minute()), nil
	case 's':
		return pad(t.Second()), nil
	case 'S':
		frac := fmt.Sprintf("%09d", t.Nanosecond())
		if n > 9 {
			n = 9
		}
		return frac[:n], nil
	case 'a':
		if t.Hour() < 12 {
			return "AM", nil
		}
		return "PM", nil
	case 'X':
		if _, offset := t.Zone(); offset == 0 {
			return "Z", nil
		}
		return t.Format("-07:00"), nil
	default:
		return "", fmt.Errorf("unsupported date token %q", string(letter))
	}
}
