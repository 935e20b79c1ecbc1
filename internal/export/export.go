package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type Kind string

const (
	KindReport Kind = "report"
	KindTodo   Kind = "todo"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatPDF      Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type Artifact struct {
	Data        []byte
	ContentType string
	Extension   string
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindReport:
		return KindReport, nil
	case KindTodo:
		return KindTodo, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrUnsupportedFormat, s)
}

// Render produces one export artifact. CSV is only defined for todo lists.
func Render(report *models.AnalysisReport, kind Kind, format Format, opts TodoOptions) (*Artifact, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case kind == KindTodo && format == FormatMarkdown:
		var s string
		s, err = TodoMarkdown(report, opts)
		data = []byte(s)
	case kind == KindTodo && format == FormatJSON:
		data, err = TodoJSON(report, opts)
	case kind == KindTodo && format == FormatCSV:
		data = []byte(TodoCSV(report, opts))
	case kind == KindTodo && format == FormatPDF:
		data, err = TodoPDF(report, opts)
	case kind == KindReport && format == FormatMarkdown:
		var s string
		s, err = ReportMarkdown(report)
		data = []byte(s)
	case kind == KindReport && format == FormatJSON:
		data, err = ReportJSON(report)
	case kind == KindReport && format == FormatPDF:
		data, err = ReportPDF(report)
	default:
		return nil, fmt.Errorf("%w: %s as %s", ErrUnsupportedFormat, kind, format)
	}
	if err != nil {
		return nil, err
	}

	metrics.ExportsTotal.WithLabelValues(string(kind), string(format)).Inc()

	return &Artifact{Data: data, ContentType: contentType(format), Extension: extension(format)}, nil
}

func contentType(f Format) string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/pdf"
	}
}

func extension(f Format) string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Filename builds a download name like krug-todo-example.com-20261015.md.
func Filename(report *models.AnalysisReport, kind Kind, format Format) string {
	host := report.URL
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		host = "site"
	}
	return fmt.Sprintf("krug-%s-%s-%s.%s", kind, host, report.Timestamp.UTC().Format("20060102"), extension(format))
}
