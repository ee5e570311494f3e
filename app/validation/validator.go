// Package validation screens product records against a template before they
// are serialized. Errors reject the record; warnings are only reported.
package validation

import (
	"fmt"

	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
)

type Issue struct {
	Field   string            `json:"field" msgpack:"field"`
	Message string            `json:"message" msgpack:"message"`
	Product map[string]string `json:"product,omitempty" msgpack:"product,omitempty"`
}

type Result struct {
	IsValid  bool    `json:"isValid" msgpack:"is_valid"`
	Errors   []Issue `json:"errors" msgpack:"errors"`
	Warnings []Issue `json:"warnings" msgpack:"warnings"`
}

type Options struct {
	// RequireBrand reports a missing brand on Google feeds as an error
	// instead of a warning.
	RequireBrand bool
}

// Overlay adds format specific rules on top of the required-field check.
type Overlay func(c *Check)

type Validator struct {
	mapper   *mapper.Mapper
	opts     Options
	overlays map[template.FeedType]Overlay
}

func New(mp *mapper.Mapper, opts Options) *Validator {
	v := &Validator{
		mapper:   mp,
		opts:     opts,
		overlays: make(map[template.FeedType]Overlay),
	}
	v.Register(template.FeedTypeGoogle, googleOverlay)
	return v
}

// Register installs or replaces the overlay for a feed type.
func (v *Validator) Register(feedType template.FeedType, overlay Overlay) {
	v.overlays[feedType] = overlay
}

func (v *Validator) Validate(rec record.Record, mappings []template.FieldMapping, feedType template.FeedType) Result {
	c := &Check{
		Record:   rec,
		Options:  v.opts,
		resolved: make(map[string]record.Value, len(mappings)),
		result:   Result{IsValid: true},
	}

	for _, m := range mappings {
		value, ok := v.mapper.Resolve(m, rec)
		if ok {
			c.resolved[m.TargetField] = value
		}

		if m.IsRequired && !ok {
			c.errorf(m.TargetField, c.snapshot(m.SourceField, value),
				"Required field %s is missing or empty", m.TargetField)
		}
	}

	if overlay, ok := v.overlays[feedType]; ok && overlay != nil {
		overlay(c)
	}

	return c.result
}

// Check is the per-record state handed to overlays.
type Check struct {
	Record  record.Record
	Options Options

	resolved map[string]record.Value
	result   Result
}

// Value returns the resolved value of a target field.
func (c *Check) Value(target string) (record.Value, bool) {
	v, ok := c.resolved[target]
	return v, ok
}

func (c *Check) HasError(field string) bool {
	for _, e := range c.result.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (c *Check) Error(field, message string) {
	c.result.IsValid = false
	c.result.Errors = append(c.result.Errors, Issue{Field: field, Message: message, Product: c.snapshot(field, c.resolved[field])})
}

func (c *Check) Warn(field, message string) {
	c.result.Warnings = append(c.result.Warnings, Issue{Field: field, Message: message, Product: c.snapshot(field, c.resolved[field])})
}

func (c *Check) errorf(field string, product map[string]string, format string, args ...any) {
	c.result.IsValid = false
	c.result.Errors = append(c.result.Errors, Issue{Field: field, Message: fmt.Sprintf(format, args...), Product: product})
}

// snapshot identifies the offending record in a report without copying it.
func (c *Check) snapshot(field string, value record.Value) map[string]string {
	snap := map[string]string{"id": c.Record.ID()}
	if field != "" {
		snap[field] = value.String()
	}
	return snap
}
