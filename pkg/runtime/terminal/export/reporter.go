package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

type TableConfig struct {
	NameWidth        int
	CountWidth       int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        40,
		CountWidth:       8,
		DescriptionWidth: 54,
	}
}

// Reporter renders a report as one bordered table per section.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, apples, trees interface{}, desc string) string {
			return fmt.Sprintf("| %-*s | %*v | %*v | %-*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.CountWidth, apples,
				c.config.CountWidth, trees,
				c.config.DescriptionWidth, truncate(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.CountWidth+2),
				strings.Repeat("-", c.config.CountWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
		"period": formatPeriod,
	}

	tmpl := `
{{.Title}}
Period: {{period .Period}}
Total Apples: {{.Totals.Apples}}  Total Trees: {{.Totals.Trees}}
{{range .Sections}}
=== {{.Title}} ===
{{range $key, $value := .Summary}}{{$key}}: {{$value}}
{{end}}
{{separator}}
{{formatRow "File" "Apples" "Trees" "Details"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Apples .Trees .Description}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func formatPeriod(p domain.TimePeriod) string {
	start, end := "…", "…"
	if !p.Start.IsZero() {
		start = p.Start.Format("2006-01-02")
	}
	if !p.End.IsZero() {
		end = p.End.Format("2006-01-02")
	}
	if p.Start.IsZero() && p.End.IsZero() {
		return "all time"
	}
	return start + " to " + end
}
