package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lance13c/auditor/internal/logging"
)

// Format is an output format of the report writer.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// AllFormats in write order.
var AllFormats = []Format{FormatJSON, FormatMarkdown, FormatHTML}

// ParseFormat accepts json, markdown (or md) and html.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Extension is the file extension for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Writer saves reports into Dir.
type Writer struct {
	Dir     string
	Formats []Format // empty means all formats
	Now     func() time.Time
}

// NewWriter writes every format into dir.
func NewWriter(dir string, formats ...Format) *Writer {
	return &Writer{Dir: dir, Formats: formats, Now: time.Now}
}

// FileStem is qa_audit_report_<YYYYMMDD_HHMMSS>.
func FileStem(t time.Time) string {
	return "qa_audit_report_" + t.Format("20060102_150405")
}

// Save renders and writes the report in each configured format and
// returns the written paths by format.
func (w *Writer) Save(in Input) (map[Format]string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	generatedAt := now()

	formats := w.Formats
	if len(formats) == 0 {
		formats = AllFormats
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	stem := FileStem(generatedAt)
	paths := make(map[Format]string, len(formats))
	for _, f := range formats {
		content, err := render(f, in, generatedAt)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(w.Dir, stem+"."+f.Extension())
		if err := os.WriteFile(path, content, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s report: %w", f, err)
		}
		logging.Info("wrote %s report to %s", f, path)
		paths[f] = path
	}
	return paths, nil
}

func render(f Format, in Input, generatedAt time.Time) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := MarshalJSONReport(in, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json report: %w", err)
		}
		return data, nil
	case FormatMarkdown:
		return []byte(RenderMarkdown(in, generatedAt)), nil
	case FormatHTML:
		html, err := RenderHTML(in, generatedAt)
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}
