package export

import (
	"encoding/json"
	"fmt"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

// TodoJSON renders tasks as an array, or as an object keyed by group when
// options group them.
func TodoJSON(report *models.AnalysisReport, opts TodoOptions) ([]byte, error) {
	tasks := GenerateTodoTasks(report)

	var v any = tasks
	if opts.GroupBy != GroupNone {
		grouped := make(map[string][]TodoTask)
		for _, g := range groupTasks(tasks, opts.GroupBy) {
			grouped[g.Key] = g.Tasks
		}
		v = grouped
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal todo list: %w", err)
	}
	return data, nil
}

func ReportJSON(report *models.AnalysisReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}
