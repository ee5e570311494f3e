// Package mapper resolves the value a field mapping emits for a product record.
package mapper

import (
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/transform"
)

type Mapper struct {
	engine *transform.Engine
}

func New(engine *transform.Engine) *Mapper {
	if engine == nil {
		engine = transform.NewEngine(nil, nil)
	}
	return &Mapper{engine: engine}
}

// Resolve returns the emitted value for m and reports whether it is present.
//
// A non-null source value runs through the transformation chain. When the
// source is missing, null or empty and the chain produced nothing, the
// mapping's default is used as is. An empty result counts as absent.
func (mp *Mapper) Resolve(m template.FieldMapping, rec record.Record) (record.Value, bool) {
	var source record.Value
	if m.SourceField != "" {
		source, _ = rec.Get(m.SourceField)
	}

	value := source
	if !source.IsNull() {
		value = mp.engine.Apply(source, m.Transformations, rec)
	}

	if value.IsAbsent() && source.IsAbsent() && m.DefaultValue != "" {
		value = record.String(m.DefaultValue)
	}

	if value.IsAbsent() {
		return record.Null(), false
	}
	return value, true
}

// Discover lists the field names available across records.
func Discover(records []record.Record) []string {
	return record.FieldNames(records)
}
