package export

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// DefaultFileName is used when the caller leaves the download name blank.
const DefaultFileName = "chart-data"

var Formats = []Format{FormatCSV, FormatXLSX, FormatPDF}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected csv, xlsx or pdf)", s)
}

func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName appends the format extension to base, falling back to DefaultFileName.
func (f Format) FileName(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultFileName
	}
	base = strings.TrimSuffix(base, f.Extension())
	return base + f.Extension()
}
