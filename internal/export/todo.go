package export

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityOrder = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

type TaskSource string

const (
	SourceImplementation TaskSource = "implementation"
	SourceRecommendation TaskSource = "recommendation"
	SourceIssue          TaskSource = "issue"
)

type GroupBy string

const (
	GroupNone     GroupBy = ""
	GroupCategory GroupBy = "category"
	GroupPriority GroupBy = "priority"
)

type TodoOptions struct {
	GroupBy           GroupBy
	IncludePriority   bool
	IncludeReferences bool
}

func DefaultTodoOptions() TodoOptions {
	return TodoOptions{GroupBy: GroupCategory, IncludePriority: true, IncludeReferences: true}
}

type TodoTask struct {
	ID           string             `json:"id"`
	CategoryID   catalog.CategoryID `json:"categoryId"`
	CategoryName string             `json:"category"`
	Title        string             `json:"task"`
	Description  string             `json:"description"`
	Priority     Priority           `json:"priority"`
	Source       TaskSource         `json:"source"`
	Reference    string             `json:"reference"`
	Completed    bool               `json:"completed"`
}

var highPriorityKeywords = []string{"navigation", "hierarchy", "obvious", "self-evident", "mindless"}

// todoNamespace seeds deterministic task ids so the same report always
// exports the same ids.
var todoNamespace = uuid.MustParse("5b0f3c8e-2d4a-4c61-9d2e-6f1a7b9e0c42")

// GenerateTodoTasks derives one task per implementation task, per structured
// recommendation and per high-severity issue, in category order.
func GenerateTodoTasks(report *models.AnalysisReport) []TodoTask {
	tasks := []TodoTask{}
	if report == nil {
		return tasks
	}

	for _, c := range report.Categories {
		add := func(title, description, reference string, source TaskSource, severity models.Severity) {
			tasks = append(tasks, TodoTask{
				ID:           taskID(report.URL, c.ID, len(tasks), title),
				CategoryID:   c.ID,
				CategoryName: c.Name,
				Title:        title,
				Description:  description,
				Priority:     assignPriority(title+" "+description, c.Weight, severity),
				Source:       source,
				Reference:    reference,
			})
		}

		for _, t := range c.ImplementationTasks {
			add(t, fmt.Sprintf("Current category score %d/100", c.Score), "", SourceImplementation, "")
		}

		for _, r := range c.Recommendations {
			if r.Plain {
				continue
			}
			add(r.Action, r.UserTask, r.PrincipleReference, SourceRecommendation, "")
		}

		for _, issue := range c.Issues {
			if issue.Severity != models.SeverityHigh {
				continue
			}
			add("Fix: "+issue.Description, issueLocation(issue), issue.PrincipleNote, SourceIssue, issue.Severity)
		}
	}

	return tasks
}

func assignPriority(text string, weight int, severity models.Severity) Priority {
	lower := strings.ToLower(text)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return PriorityHigh
		}
	}

	switch {
	case severity == models.SeverityHigh:
		return PriorityHigh
	case weight >= 10:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func issueLocation(issue models.Issue) string {
	var parts []string
	if issue.Element != "" {
		parts = append(parts, "Element: "+issue.Element)
	}
	if issue.PageRef != "" {
		parts = append(parts, "Page: "+issue.PageRef)
	}
	if len(parts) == 0 {
		return "High-severity usability issue"
	}
	return strings.Join(parts, "; ")
}

func taskID(url string, id catalog.CategoryID, n int, title string) string {
	return uuid.NewSHA1(todoNamespace, []byte(fmt.Sprintf("%s|%s|%d|%s", url, id, n, title))).String()
}

type taskGroup struct {
	Key   string
	Label string
	Tasks []TodoTask
}

// groupTasks splits tasks by category (catalog order) or priority
// (high first). Empty groups are omitted.
func groupTasks(tasks []TodoTask, by GroupBy) []taskGroup {
	switch by {
	case GroupCategory:
		var groups []taskGroup
		for _, c := range catalog.List() {
			g := taskGroup{Key: string(c.ID), Label: c.Name}
			for _, t := range tasks {
				if t.CategoryID == c.ID {
					g.Tasks = append(g.Tasks, t)
				}
			}
			if len(g.Tasks) > 0 {
				groups = append(groups, g)
			}
		}
		return groups
	case GroupPriority:
		var groups []taskGroup
		for _, p := range priorityOrder {
			g := taskGroup{Key: string(p), Label: priorityLabel(p)}
			for _, t := range tasks {
				if t.Priority == p {
					g.Tasks = append(g.Tasks, t)
				}
			}
			if len(g.Tasks) > 0 {
				groups = append(groups, g)
			}
		}
		return groups
	default:
		return []taskGroup{{Key: "all", Label: "All Tasks", Tasks: tasks}}
	}
}

func priorityLabel(p Priority) string {
	switch p {
	case PriorityHigh:
		return "High Priority"
	case PriorityMedium:
		return "Medium Priority"
	default:
		return "Low Priority"
	}
}

func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case GroupNone, "none":
		return GroupNone, nil
	case GroupCategory:
		return GroupCategory, nil
	case GroupPriority:
		return GroupPriority, nil
	}
	return GroupNone, fmt.Errorf("unknown groupBy %q", s)
}
