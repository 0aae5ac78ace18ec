package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/domain/release"
)

const (
	timeLayout  = "2006-01-02 15:04:05"
	shortIDSize = 8
	emptyCell   = "-"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	succeededStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

// Releases renders one row per release.
func Releases(releases []*release.Release) string {
	rows := make([][]string, 0, len(releases))

	for _, rel := range releases {
		assets := make([]string, 0, len(rel.Assets))
		for _, asset := range rel.Assets {
			assets = append(assets, asset.Name)
		}

		rows = append(rows, []string{
			rel.TagName,
			orEmpty(rel.Name),
			formatTime(rel.CreatedAt),
			orEmpty(strings.Join(assets, ", ")),
			orEmpty(rel.HTMLURL),
		})
	}

	return newTable([]string{"Tag", "Title", "Created", "Assets", "URL"}, rows)
}

// History renders one row per run.
func History(runs []*pipeline.Run) string {
	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			Status(run.Status),
			formatTime(run.StartedAt),
			formatDuration(run.Duration()),
			orEmpty(string(run.FailedStep)),
			orEmpty(run.Version),
			actor(run.Trigger),
		})
	}

	return newTable([]string{"Run", "Status", "Started", "Duration", "Failed step", "Version", "Actor"}, rows)
}

// RunSummary renders the outcome of one run and its step timings.
func RunSummary(run *pipeline.Run) string {
	var builder strings.Builder

	builder.WriteString(titleStyle.Render("Run " + run.ID))
	builder.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}

		builder.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label+":")))
		builder.WriteString(" ")
		builder.WriteString(value)
		builder.WriteString("\n")
	}

	field("Status", Status(run.Status))
	field("Trigger", trigger(run.Trigger))
	field("Duration", formatDuration(run.Duration()))
	field("Version", run.Version)
	field("Failed step", string(run.FailedStep))

	if run.Status == pipeline.StatusFailed {
		field("Category", string(run.Category))
		field("Error", run.Error)
	}

	field("Archive", run.ArchivePath)
	field("Artifact", run.ArtifactKey)
	field("Release", run.ReleaseURL)
	field("Asset", run.AssetURL)

	rows := make([][]string, 0, len(run.Steps))
	for i, step := range run.Steps {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(step.Step),
			Status(step.Status),
			formatDuration(step.Duration),
		})
	}

	if len(rows) > 0 {
		builder.WriteString(newTable([]string{"#", "Step", "Status", "Duration"}, rows))
		builder.WriteString("\n")
	}

	return builder.String()
}

// Status colors a run or step status.
func Status(status pipeline.Status) string {
	switch status {
	case pipeline.StatusSucceeded:
		return succeededStyle.Render(string(status))
	case pipeline.StatusFailed:
		return failedStyle.Render(string(status))
	case pipeline.StatusRunning:
		return runningStyle.Render(string(status))
	default:
		return string(status)
	}
}

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		String()
}

func trigger(t *pipeline.Trigger) string {
	if t == nil {
		return "manual"
	}

	parts := []string{t.Event}
	if t.BaseBranch != "" {
		parts = append(parts, "into "+t.BaseBranch)
	}

	if t.HeadRef != "" {
		parts = append(parts, "from "+t.HeadRef)
	}

	if t.Actor != nil {
		parts = append(parts, "by "+t.Actor.String())
	}

	return strings.Join(parts, " ")
}

func actor(t *pipeline.Trigger) string {
	if t == nil || t.Actor == nil {
		return emptyCell
	}

	return t.Actor.String()
}

func shortID(id string) string {
	if len(id) > shortIDSize {
		return id[:shortIDSize]
	}

	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return emptyCell
	}

	return t.Local().Format(timeLayout)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return emptyCell
	}

	return d.Round(time.Millisecond).String()
}

func orEmpty(value string) string {
	if value == "" {
		return emptyCell
	}

	return value
}
