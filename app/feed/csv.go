package feed

import (
	"bytes"
	"strings"

	"github.com/lysyi3m/product-feeds/app/mapper"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/template"
)

// csvSerializer writes one column per mapping. Every value is quoted, even
// when it contains nothing that needs quoting.
type csvSerializer struct {
	mapper *mapper.Mapper
}

func (s *csvSerializer) header(buf *bytes.Buffer, tmpl *template.Template, _ Options) {
	buf.WriteString(strings.Join(tmpl.TargetFields(), ","))
	buf.WriteString("\n")
}

func (s *csvSerializer) item(buf *bytes.Buffer, rec record.Record, tmpl *template.Template) {
	for i, m := range tmpl.Mappings {
		if i > 0 {
			buf.WriteByte(',')
		}
		value, _ := s.mapper.Resolve(m, rec)
		writeQuoted(buf, value.String())
	}
	buf.WriteString("\n")
}

func (s *csvSerializer) footer(*bytes.Buffer) {}

func writeQuoted(buf *bytes.Buffer, value string) {
	buf.WriteByte('"')
	buf.WriteString(strings.ReplaceAll(value, `"`, `""`))
	buf.WriteByte('"')
}
