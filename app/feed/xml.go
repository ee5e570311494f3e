package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
)

const (
	googleNamespace = "http://base.google.com/ns/1.0"

	additionalImageLink = "additional_image_link"
	maxAdditionalImages = 10
)

type xmlSerializer struct {
	mapper *mapper.Mapper
}

func (s *xmlSerializer) header(buf *bytes.Buffer, tmpl *template.Template, opts Options) {
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss xmlns:g="` + googleNamespace + `" version="2.0">`)
	buf.WriteString("\n<channel>\n")

	writeElement(buf, "title", tmpl.ChannelTitle(), 2)
	writeElement(buf, "link", cmp.Or(tmpl.Link, opts.ChannelLink), 2)
	description := tmpl.Description
	if description == "" {
		description = fmt.Sprintf("Product feed %s", tmpl.ChannelTitle())
	}
	writeElement(buf, "description", description, 2)

	if !opts.GeneratedAt.IsZero() {
		writeElement(buf, "lastBuildDate", opts.GeneratedAt.Format(time.RFC1123Z), 2)
	}
}

func (s *xmlSerializer) item(buf *bytes.Buffer, rec record.Record, tmpl *template.Template) {
	// Fields keep the position of their first mapping and the value of
	// their last one.
	var order []string
	fields := make(map[string]string, len(tmpl.Mappings))
	var images []string

	for _, m := range tmpl.Mappings {
		value, ok := s.mapper.Resolve(m, rec)
		if !ok {
			continue
		}
		if m.TargetField == additionalImageLink {
			images = append(images, value.Items()...)
			continue
		}
		if _, seen := fields[m.TargetField]; !seen {
			order = append(order, m.TargetField)
		}
		fields[m.TargetField] = value.String()
	}

	buf.WriteString("  <item>\n")

	for _, field := range order {
		writeCDATA(buf, field, fields[field])
	}

	for i, link := range images {
		if i == maxAdditionalImages {
			break
		}
		writeCDATA(buf, additionalImageLink, link)
	}

	if _, ok := fields["id"]; !ok {
		if id := rec.ID(); id != "" {
			writeCDATA(buf, "id", id)
		}
	}

	buf.WriteString("  </item>\n")
}

func (s *xmlSerializer) footer(buf *bytes.Buffer) {
	buf.WriteString("</channel>\n</rss>")
}

// writeCDATA writes <g:field> with the value in a CDATA section. A "]]>" in
// the value closes the section and opens a new one.
func writeCDATA(buf *bytes.Buffer, field, value string) {
	buf.WriteString("    <g:")
	buf.WriteString(field)
	buf.WriteString("><![CDATA[")
	buf.WriteString(strings.ReplaceAll(xmlChars(value), "]]>", "]]]]><![CDATA[>"))
	buf.WriteString("]]></g:")
	buf.WriteString(field)
	buf.WriteString(">\n")
}

// xmlChars drops invalid UTF-8 and runes outside the XML 1.0 Char range.
// CDATA has no escape for them.
func xmlChars(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
