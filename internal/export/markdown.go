package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

func TodoMarkdown(report *models.AnalysisReport, opts TodoOptions) (string, error) {
	tasks := GenerateTodoTasks(report)

	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	md.H1("Usability To-Do List")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", report.URL},
			{"Analyzed", report.Timestamp.UTC().Format(timestampLayout)},
			{"Overall Score", fmt.Sprintf("%d/100", report.OverallScore)},
			{"Tasks", strconv.Itoa(len(tasks))},
		},
	})
	md.PlainText("")

	if len(tasks) == 0 {
		md.Tip("No tasks were generated for this report.")
		return build(md, &sb)
	}

	for _, g := range groupTasks(tasks, opts.GroupBy) {
		if opts.GroupBy != GroupNone {
			md.H2(fmt.Sprintf("%s (%d)", g.Label, len(g.Tasks)))
			md.PlainText("")
		}

		items := make([]markdown.CheckBoxSet, 0, len(g.Tasks))
		for _, t := range g.Tasks {
			items = append(items, markdown.CheckBoxSet{Checked: t.Completed, Text: todoLine(t, opts)})
		}
		md.CheckBox(items)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("*Generated by Krug Usability Analyzer*")

	return build(md, &sb)
}

func todoLine(t TodoTask, opts TodoOptions) string {
	line := markdown.Bold(t.Title)
	if t.Description != "" {
		line += ": " + t.Description
	}
	if opts.IncludePriority {
		line += fmt.Sprintf(" `%s`", t.Priority)
	}
	if opts.GroupBy != GroupCategory {
		line += " (" + t.CategoryName + ")"
	}
	if opts.IncludeReferences && t.Reference != "" {
		line += " " + markdown.Italic("Ref: "+t.Reference)
	}
	return line
}

func ReportMarkdown(report *models.AnalysisReport) (string, error) {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	level := models.LevelForScore(report.OverallScore)
	if report.OverallAssessment != nil {
		level = report.OverallAssessment.Level
	}

	md.H1("Usability Analysis Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", report.URL},
			{"Analyzed", report.Timestamp.UTC().Format(timestampLayout)},
			{"AI Provider", string(report.Settings.AIProvider)},
			{"Analysis Depth", string(report.Settings.AnalysisDepth)},
			{"Overall Score", fmt.Sprintf("%d/100 (%s)", report.OverallScore, level)},
		},
	})
	md.PlainText("")

	writeScoreAlert(md, report)

	if report.OverallAssessment != nil {
		md.H2("Overall Assessment")
		md.PlainText("")
		if report.OverallAssessment.Message != "" {
			md.PlainText(report.OverallAssessment.Message)
			md.PlainText("")
		}
		if len(report.OverallAssessment.Strengths) > 0 {
			md.BulletList(report.OverallAssessment.Strengths...)
			md.PlainText("")
		}
	}

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"High", strconv.Itoa(report.Summary.HighCount)},
			{"Medium", strconv.Itoa(report.Summary.MediumCount)},
			{"Low", strconv.Itoa(report.Summary.LowCount)},
			{"**Total**", "**" + strconv.Itoa(report.Summary.TotalIssues()) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Summary.TopRecommendations) > 0 {
		md.H3("Top Recommendations")
		md.PlainText("")
		md.OrderedList(report.Summary.TopRecommendations...)
		md.PlainText("")
	}

	md.H2("Category Scores")
	md.PlainText("")
	rows := make([][]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Weight), fmt.Sprintf("%d/100", c.Score), string(c.AssessmentLevel)})
	}
	md.Table(markdown.TableSet{Header: []string{"Category", "Weight", "Score", "Assessment"}, Rows: rows})
	md.PlainText("")

	for _, c := range report.Categories {
		writeCategory(md, c)
	}

	md.HorizontalRule()
	md.PlainText("*Generated by Krug Usability Analyzer*")

	return build(md, &sb)
}

func writeScoreAlert(md *markdown.Markdown, report *models.AnalysisReport) {
	switch {
	case report.UsedFallback:
		md.Cautionf("The AI provider could not be reached. This report contains generic guidance, not findings for %s.", report.URL)
	case report.Summary.HighCount > 0:
		md.Warningf("%d high severity issue(s) should be addressed first.", report.Summary.HighCount)
	case report.OverallScore >= 85:
		md.Tip("This site follows Krug's principles well.")
	default:
		md.Note("No high severity issues found.")
	}
	md.PlainText("")
}

func writeCategory(md *markdown.Markdown, c models.CategoryResult) {
	md.H2(fmt.Sprintf("%s: %d/100", c.Name, c.Score))
	md.PlainText("")
	if c.Details != "" {
		md.PlainText(c.Details)
		md.PlainText("")
	}

	if len(c.Strengths) > 0 {
		md.H3("Strengths")
		md.PlainText("")
		md.BulletList(c.Strengths...)
		md.PlainText("")
	}

	if len(c.Issues) > 0 {
		md.H3("Issues")
		md.PlainText("")
		rows := make([][]string, 0, len(c.Issues))
		for _, i := range c.Issues {
			rows = append(rows, []string{string(i.Severity), i.Description, dash(i.Element), dash(i.PageRef), dash(i.PrincipleNote)})
		}
		md.Table(markdown.TableSet{Header: []string{"Severity", "Description", "Element", "Page", "Principle"}, Rows: rows})
		md.PlainText("")
	}

	if len(c.Recommendations) > 0 {
		md.H3("Recommendations")
		md.PlainText("")
		items := make([]string, 0, len(c.Recommendations))
		for _, r := range c.Recommendations {
			items = append(items, recommendationLine(r))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(c.ImplementationTasks) > 0 {
		md.H3("Implementation Tasks")
		md.PlainText("")
		boxes := make([]markdown.CheckBoxSet, 0, len(c.ImplementationTasks))
		for _, t := range c.ImplementationTasks {
			boxes = append(boxes, markdown.CheckBoxSet{Text: t})
		}
		md.CheckBox(boxes)
		md.PlainText("")
	}
}

func recommendationLine(r models.Recommendation) string {
	if r.Plain {
		return r.Action
	}
	line := markdown.Bold(r.Action)
	if r.UserTask != "" {
		line += " (user task: " + r.UserTask + ")"
	}
	if r.PrincipleReference != "" {
		line += " " + markdown.Italic(r.PrincipleReference)
	}
	return line
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func build(md *markdown.Markdown, sb *strings.Builder) (string, error) {
	if err := md.Build(); err != nil {
		return "", fmt.Errorf("failed to build markdown: %w", err)
	}
	return sb.String(), nil
}
