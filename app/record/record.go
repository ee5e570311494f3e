package record

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record is one product from the catalog. Field names are not known ahead of
// time.
type Record map[string]Value

func (r Record) Get(field string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r[field]
	return v, ok
}

// ID returns the raw "id" field when it carries a usable value.
func (r Record) ID() string {
	v, ok := r.Get("id")
	if !ok || v.IsAbsent() {
		return ""
	}
	return v.String()
}

// Snapshot returns a plain map copy suitable for JSON or msgpack encoding.
func (r Record) Snapshot() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = v.String()
	}
	return out
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("record must be a JSON object: %w", err)
	}
	*r = fields
	return nil
}

// FieldNames returns the sorted union of field names seen across records.
func FieldNames(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
