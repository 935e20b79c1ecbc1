package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	model.ConfigPath = "disable"
}

const (
	pageWidth  = 210.0
	margin     = 15.0
	lineHeight = 6.0
)

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDFDoc(title string, report *models.AnalysisReport) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("Krug Usability Analyzer", true)
	pdf.SetCreationDate(report.Timestamp)
	pdf.SetModificationDate(report.Timestamp)

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	d.heading(title, 18)
	d.text(fmt.Sprintf("Website: %s", report.URL), "", 10)
	d.text(fmt.Sprintf("Analyzed: %s", report.Timestamp.UTC().Format(timestampLayout)), "", 10)
	d.text(fmt.Sprintf("Overall score: %d/100", report.OverallScore), "B", 11)
	pdf.Ln(lineHeight)

	return d
}

func (d *pdfDoc) heading(s string, size float64) {
	d.pdf.SetFont("Helvetica", "B", size)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.MultiCell(0, size*0.5, d.tr(s), "", "L", false)
	d.pdf.Ln(2)
}

func (d *pdfDoc) text(s, style string, size float64) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.MultiCell(0, lineHeight, d.tr(s), "", "L", false)
}

func (d *pdfDoc) bullet(s string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.SetX(margin + 4)
	d.pdf.MultiCell(pageWidth-2*margin-4, lineHeight, d.tr("- "+s), "", "L", false)
}

func (d *pdfDoc) severityLine(sev models.Severity, s string) {
	switch sev {
	case models.SeverityHigh:
		d.pdf.SetTextColor(192, 57, 43)
	case models.SeverityMedium:
		d.pdf.SetTextColor(211, 120, 0)
	default:
		d.pdf.SetTextColor(41, 128, 185)
	}
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.SetX(margin + 4)
	d.pdf.CellFormat(18, lineHeight, strings.ToUpper(string(sev)), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.MultiCell(pageWidth-2*margin-22, lineHeight, d.tr(s), "", "L", false)
}

// finish renders the document and passes it through pdfcpu, which validates
// the structure and optimizes shared resources.
func (d *pdfDoc) finish() ([]byte, error) {
	var raw bytes.Buffer
	if err := d.pdf.Output(&raw); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw.Bytes()), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to validate pdf: %w", err)
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return out.Bytes(), nil
}

func ReportPDF(report *models.AnalysisReport) ([]byte, error) {
	d := newPDFDoc("Usability Analysis Report", report)

	if report.UsedFallback {
		d.text("The AI provider could not be reached. This report contains generic guidance.", "I", 10)
		d.pdf.Ln(lineHeight / 2)
	}

	if report.OverallAssessment != nil && report.OverallAssessment.Message != "" {
		d.heading("Overall Assessment", 14)
		d.text(report.OverallAssessment.Message, "", 10)
		d.pdf.Ln(lineHeight / 2)
	}

	d.heading("Summary", 14)
	d.text(fmt.Sprintf("High: %d   Medium: %d   Low: %d",
		report.Summary.HighCount, report.Summary.MediumCount, report.Summary.LowCount), "", 10)
	for _, r := range report.Summary.TopRecommendations {
		d.bullet(r)
	}
	d.pdf.Ln(lineHeight)

	for _, c := range report.Categories {
		d.heading(fmt.Sprintf("%s: %d/100", c.Name, c.Score), 13)
		if c.Details != "" {
			d.text(c.Details, "", 10)
		}
		for _, issue := range c.Issues {
			d.severityLine(issue.Severity, issue.Description)
		}
		for _, r := range c.Recommendations {
			line := r.Action
			if !r.Plain && r.PrincipleReference != "" {
				line += " (" + r.PrincipleReference + ")"
			}
			d.bullet(line)
		}
		d.pdf.Ln(lineHeight / 2)
	}

	return d.finish()
}

func TodoPDF(report *models.AnalysisReport, opts TodoOptions) ([]byte, error) {
	d := newPDFDoc("Usability To-Do List", report)

	tasks := GenerateTodoTasks(report)
	if len(tasks) == 0 {
		d.text("No tasks were generated for this report.", "I", 10)
		return d.finish()
	}

	for _, g := range groupTasks(tasks, opts.GroupBy) {
		if opts.GroupBy != GroupNone {
			d.heading(fmt.Sprintf("%s (%d)", g.Label, len(g.Tasks)), 13)
		}
		for _, t := range g.Tasks {
			line := "[ ] " + t.Title
			if opts.IncludePriority {
				line += " [" + string(t.Priority) + "]"
			}
			d.text(line, "B", 10)
			if t.Description != "" {
				d.bullet(t.Description)
			}
			if opts.IncludeReferences && t.Reference != "" {
				d.bullet("Ref: " + t.Reference)
			}
		}
		d.pdf.Ln(lineHeight / 2)
	}

	return d.finish()
}
