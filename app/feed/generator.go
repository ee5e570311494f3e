// Package feed turns product records into a downloadable feed document using
// a template's field mappings.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/validation"
)

var ErrUnsupportedFeedType = errors.New("unsupported feed type")

type Options struct {
	// ChannelLink is used when the template has no link of its own.
	ChannelLink string
	// GeneratedAt is written as the channel build date of XML feeds when set.
	GeneratedAt time.Time
}

// RecordReport is the validation outcome of one input record.
type RecordReport struct {
	Index  int               `json:"index" msgpack:"index"`
	ID     string            `json:"id" msgpack:"id"`
	Result validation.Result `json:"result" msgpack:"result"`
}

type Result struct {
	Document string `json:"-"`
	Accepted int    `json:"acceptedCount"`
	Skipped  int    `json:"skippedCount"`
	Warnings int    `json:"warningCount"`
	// Reports lists only records with errors or warnings.
	Reports []RecordReport `json:"reports"`
}

// serializer writes one feed format. Generator drives it record by record and
// only hands it records that passed validation.
type serializer interface {
	header(buf *bytes.Buffer, tmpl *template.Template, opts Options)
	item(buf *bytes.Buffer, rec record.Record, tmpl *template.Template)
	footer(buf *bytes.Buffer)
}

type Generator struct {
	mapper    *mapper.Mapper
	validator *validation.Validator
}

func NewGenerator(mp *mapper.Mapper, v *validation.Validator) *Generator {
	return &Generator{mapper: mp, validator: v}
}

func (g *Generator) serializerFor(feedType template.FeedType) (serializer, error) {
	switch feedType {
	case template.FeedTypeGoogle:
		return &xmlSerializer{mapper: g.mapper}, nil
	case template.FeedTypeMeta, template.FeedTypeTrovaprezzi:
		return &csvSerializer{mapper: g.mapper}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFeedType, feedType)
	}
}

// Generate renders records with tmpl. Records failing validation are left out
// of the document entirely. The only error is a template whose feed type has
// no serializer.
func (g *Generator) Generate(records []record.Record, tmpl *template.Template, opts Options) (*Result, error) {
	s, err := g.serializerFor(tmpl.Type)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	result := &Result{}

	s.header(&buf, tmpl, opts)

	for i, rec := range records {
		res := g.validator.Validate(rec, tmpl.Mappings, tmpl.Type)
		result.Warnings += len(res.Warnings)

		if len(res.Errors) > 0 || len(res.Warnings) > 0 {
			result.Reports = append(result.Reports, RecordReport{Index: i, ID: rec.ID(), Result: res})
		}

		if !res.IsValid {
			result.Skipped++
			slog.Debug("Skipping invalid product", "template", tmpl.Name, "index", i, "product", rec.ID(), "errors", len(res.Errors))
			continue
		}

		result.Accepted++
		s.item(&buf, rec, tmpl)
	}

	s.footer(&buf)
	result.Document = buf.String()

	slog.Info("Feed generated",
		"template", tmpl.Name,
		"type", tmpl.Type,
		"accepted", result.Accepted,
		"skipped", result.Skipped,
		"warnings", result.Warnings)

	return result, nil
}

func ContentType(feedType template.FeedType) string {
	switch feedType {
	case template.FeedTypeGoogle:
		return "application/xml; charset=utf-8"
	case template.FeedTypeMeta, template.FeedTypeTrovaprezzi:
		return "text/csv; charset=utf-8"
	}
	return ""
}

func Extension(feedType template.FeedType) string {
	switch feedType {
	case template.FeedTypeGoogle:
		return "xml"
	case template.FeedTypeMeta, template.FeedTypeTrovaprezzi:
		return "csv"
	}
	return ""
}

// FileName is the public download name of a template's feed.
func FileName(tmpl *template.Template) string {
	return tmpl.Name + "." + Extension(tmpl.Type)
}
