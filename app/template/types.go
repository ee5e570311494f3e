package template

import (
	"cmp"
	"slices"

	"github.com/lysyi3m/product-feeds/app/transform"
)

type FeedType string

const (
	FeedTypeGoogle      FeedType = "google"
	FeedTypeMeta        FeedType = "meta"
	FeedTypeTrovaprezzi FeedType = "trovaprezzi"
)

func (t FeedType) Valid() bool {
	switch t {
	case FeedTypeGoogle, FeedTypeMeta, FeedTypeTrovaprezzi:
		return true
	}
	return false
}

// FieldMapping maps one source field of a product record to one target field
// of the exported feed.
type FieldMapping struct {
	ID              string          `yaml:"id" json:"id"`
	SourceField     string          `yaml:"source_field" json:"sourceField"`
	TargetField     string          `yaml:"target_field" json:"targetField"`
	IsRequired      bool            `yaml:"required,omitempty" json:"isRequired"`
	DefaultValue    string          `yaml:"default_value,omitempty" json:"defaultValue,omitempty"`
	Transformations transform.Chain `yaml:"transformations,omitempty" json:"transformations"`
	Description     string          `yaml:"description,omitempty" json:"description,omitempty"`
	Example         string          `yaml:"example,omitempty" json:"example,omitempty"`
}

type Settings struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval" json:"refreshInterval"` // seconds
}

// Template describes how product records become one output feed.
type Template struct {
	Name        string         `yaml:"-" json:"name"` // Derived from filename (without .yml extension)
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title,omitempty" json:"title,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Link        string         `yaml:"link,omitempty" json:"link,omitempty"`
	Type        FeedType       `yaml:"type" json:"type"`
	Settings    Settings       `yaml:"settings" json:"settings"`
	Mappings    []FieldMapping `yaml:"mappings" json:"mappings"`
}

// ChannelTitle is the human readable feed title.
func (t *Template) ChannelTitle() string {
	return cmp.Or(t.Title, t.Name)
}

// TargetFields lists mapped target fields in mapping order.
func (t *Template) TargetFields() []string {
	fields := make([]string, 0, len(t.Mappings))
	for _, m := range t.Mappings {
		fields = append(fields, m.TargetField)
	}
	return fields
}

func (t *Template) HasTarget(field string) bool {
	return slices.ContainsFunc(t.Mappings, func(m FieldMapping) bool {
		return m.TargetField == field
	})
}

// Clone copies the template so it can be modified without affecting readers
// of the cached value. Transformation steps are immutable and stay shared.
func (t *Template) Clone() *Template {
	clone := *t
	clone.Mappings = slices.Clone(t.Mappings)
	return &clone
}
