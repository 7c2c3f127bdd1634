package export

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

// TextReporter outputs reports as an indented list, one line per row.
type TextReporter struct {
	writer io.Writer
}

func NewTextReporter(writer io.Writer) *TextReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &TextReporter{writer: writer}
}

func (c *TextReporter) Handle(report *domain.Report) error {
	tmpl := `
{{.Title}} ({{period .Period}})
Apples: {{.Totals.Apples}}, Trees: {{.Totals.Trees}}
{{range .Sections}}
{{.Title}}
{{range $key, $value := .Summary}}  {{$key}}: {{$value}}
{{end}}{{range .Details}}  - {{.Name}}: {{.Apples}} apples, {{.Trees}} trees{{if .Description}} ({{.Description}}){{end}}
{{end}}{{end}}`

	t, err := template.New("report").Funcs(template.FuncMap{"period": formatPeriod}).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
