package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/transform"
)

func TestResolve(t *testing.T) {
	rec := record.Record{
		"name":  record.String("  blue shirt "),
		"price": record.Number(19.9),
		"empty": record.String(""),
		"null":  record.Null(),
	}
	mp := New(nil)

	tests := []struct {
		name    string
		mapping template.FieldMapping
		want    string
		present bool
	}{
		{
			name:    "source with chain",
			mapping: template.FieldMapping{SourceField: "name", Transformations: transform.Chain{&transform.Trim{}, &transform.Capitalize{}}},
			want:    "Blue Shirt",
			present: true,
		},
		{
			name:    "number kept",
			mapping: template.FieldMapping{SourceField: "price"},
			want:    "19.9",
			present: true,
		},
		{
			name:    "missing source uses default",
			mapping: template.FieldMapping{SourceField: "condition", DefaultValue: "new"},
			want:    "new",
			present: true,
		},
		{
			name:    "default is not transformed",
			mapping: template.FieldMapping{SourceField: "condition", DefaultValue: "new", Transformations: transform.Chain{&transform.Uppercase{}}},
			want:    "new",
			present: true,
		},
		{
			name:    "null source uses default",
			mapping: template.FieldMapping{SourceField: "null", DefaultValue: "fallback"},
			want:    "fallback",
			present: true,
		},
		{
			name:    "empty source uses default",
			mapping: template.FieldMapping{SourceField: "empty", DefaultValue: "fallback"},
			want:    "fallback",
			present: true,
		},
		{
			name:    "empty source with producing chain",
			mapping: template.FieldMapping{SourceField: "empty", DefaultValue: "fallback", Transformations: transform.Chain{&transform.Concatenate{Template: "x{value}"}}},
			want:    "x",
			present: true,
		},
		{
			name:    "no source field",
			mapping: template.FieldMapping{DefaultValue: "static"},
			want:    "static",
			present: true,
		},
		{
			name:    "absent without default",
			mapping: template.FieldMapping{SourceField: "missing"},
			present: false,
		},
		{
			name:    "chain producing empty",
			mapping: template.FieldMapping{SourceField: "name", Transformations: transform.Chain{&transform.ValueMapping{KeepOriginal: new(bool)}}},
			present: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mp.Resolve(tt.mapping, rec)
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got.String())
			} else {
				assert.True(t, got.IsNull())
			}
		})
	}
}

func TestResolveCombineFieldsSeesWholeRecord(t *testing.T) {
	rec := record.Record{
		"brand": record.String("Acme"),
		"model": record.String("X1"),
	}
	mapping := template.FieldMapping{
		SourceField:     "brand",
		Transformations: transform.Chain{&transform.CombineFields{Template: "{value} {model}"}},
	}

	got, ok := New(nil).Resolve(mapping, rec)
	assert.True(t, ok)
	assert.Equal(t, "Acme X1", got.String())
}

func TestDiscover(t *testing.T) {
	records := []record.Record{
		{"b": record.String("1"), "a": record.String("2")},
		{"c": record.Null(), "a": record.String("3")},
	}

	assert.Equal(t, []string{"a", "b", "c"}, Discover(records))
}
