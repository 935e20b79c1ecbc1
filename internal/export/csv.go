package export

import (
	"strconv"
	"strings"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

var csvHeader = []string{"ID", "Category", "Task", "Description", "Priority", "Source", "Reference", "Completed"}

// TodoCSV writes one row per task with every field quoted. Rows follow the
// grouping order so a grouped export reads top to bottom like the markdown.
func TodoCSV(report *models.AnalysisReport, opts TodoOptions) string {
	var sb strings.Builder
	writeCSVRow(&sb, csvHeader)

	for _, g := range groupTasks(GenerateTodoTasks(report), opts.GroupBy) {
		for _, t := range g.Tasks {
			priority := string(t.Priority)
			if !opts.IncludePriority {
				priority = ""
			}
			reference := t.Reference
			if !opts.IncludeReferences {
				reference = ""
			}
			writeCSVRow(&sb, []string{
				t.ID,
				t.CategoryName,
				t.Title,
				t.Description,
				priority,
				string(t.Source),
				reference,
				strconv.FormatBool(t.Completed),
			})
		}
	}

	return sb.String()
}

func writeCSVRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
}
