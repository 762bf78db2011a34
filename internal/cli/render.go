package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/adopt/internal/adoption"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/tui"
)

// Column widths shared by the plan tables.
const (
	idWidth       = 36
	customerWidth = 16
	sourceWidth   = 16
	nameWidth     = 28
	statusWidth   = 18
	weightWidth   = 6
)

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// renderPlanHeader prints the summary block shared by plan show and sync.
func renderPlanHeader(w io.Writer, p *domain.AdoptionPlan) {
	styles := tui.NewTableStyles()
	bar := tui.NewProgressBar()

	writeLine(w, "%s %s", styles.Header.Render("Plan"), p.ID)
	writeLine(w, "  customer:    %s", p.Assignment.CustomerID)
	writeLine(w, "  product:     %s", p.Assignment.SourceID)
	writeLine(w, "  license:     %s", p.Assignment.LicenseLevel)
	writeLine(w, "  outcomes:    %s", selectionText(p.Assignment.Outcomes))
	writeLine(w, "  releases:    %s", selectionText(p.Assignment.Releases))
	if p.SolutionPlanID != "" {
		writeLine(w, "  solution:    %s", p.SolutionPlanID)
	}
	writeLine(w, "  progress:    %s  (%d/%d tasks)", bar.Render(p.Totals.ProgressPercentage),
		p.Totals.CompletedTasks, p.Totals.TotalTasks)
	writeLine(w, "  last synced: %s", tui.RelativeTime(p.LastSyncedAt))
	if p.NeedsSync {
		writeLine(w, "  %s", lipgloss.NewStyle().Foreground(tui.ColorWarning).Render("⚠ needs sync: run 'adopt plan sync "+p.ID+"'"))
	}
}

// renderPlan prints a plan and its task table.
func renderPlan(w io.Writer, p *domain.AdoptionPlan) {
	styles := tui.NewTableStyles()
	renderPlanHeader(w, p)
	writeLine(w, "")

	header := fmt.Sprintf("%4s  %-*s %-*s %*s  %-*s",
		"SEQ",
		idWidth, "TASK ID",
		nameWidth, "NAME",
		weightWidth, "WEIGHT",
		statusWidth, "STATUS",
	)
	writeLine(w, "%s", styles.Header.Render(header))

	for _, t := range p.Tasks {
		status := tui.FormatTaskStatus(t.Status)
		plain := tui.TaskStatusIcon(t.Status) + " " + t.Status.String()
		row := fmt.Sprintf("%4d  %-*s %-*s %*.1f  %-*s",
			t.SequenceNumber,
			idWidth, t.ID,
			nameWidth, tui.Truncate(t.Name, nameWidth),
			weightWidth, t.Weight,
			statusWidth+tui.ColorOffset(status, plain), status,
		)
		if t.Orphaned {
			row = styles.Dim.Render(row + "  (orphaned)")
		}
		writeLine(w, "%s", row)
	}
}

// renderPlanList prints one row per plan.
func renderPlanList(w io.Writer, plans []*domain.AdoptionPlan) {
	styles := tui.NewTableStyles()
	bar := tui.NewProgressBar(tui.WithWidth(12))

	header := fmt.Sprintf("%-*s %-*s %-*s %-5s %s",
		idWidth, "PLAN",
		customerWidth, "CUSTOMER",
		sourceWidth, "PRODUCT",
		"SYNC",
		"PROGRESS",
	)
	writeLine(w, "%s", styles.Header.Render(header))

	for _, p := range plans {
		writeLine(w, "%-*s %-*s %-*s %-5s %s",
			idWidth, p.ID,
			customerWidth, tui.Truncate(p.Assignment.CustomerID, customerWidth),
			sourceWidth, tui.Truncate(p.Assignment.SourceID, sourceWidth),
			syncMark(p.NeedsSync),
			bar.Render(p.Totals.ProgressPercentage),
		)
	}
}

// renderSolution prints a solution plan and its children.
func renderSolution(w io.Writer, sp *domain.SolutionAdoptionPlan, children []*domain.AdoptionPlan) {
	styles := tui.NewTableStyles()
	bar := tui.NewProgressBar()

	writeLine(w, "%s %s", styles.Header.Render("Solution plan"), sp.ID)
	writeLine(w, "  customer:    %s", sp.Assignment.CustomerID)
	writeLine(w, "  solution:    %s", sp.Assignment.SourceID)
	writeLine(w, "  license:     %s", sp.Assignment.LicenseLevel)
	writeLine(w, "  progress:    %s  (%d/%d tasks)", bar.Render(sp.Totals.ProgressPercentage),
		sp.Totals.CompletedTasks, sp.Totals.TotalTasks)
	writeLine(w, "  last synced: %s", tui.RelativeTime(sp.LastSyncedAt))
	if sp.NeedsSync {
		writeLine(w, "  %s", lipgloss.NewStyle().Foreground(tui.ColorWarning).Render("⚠ needs sync: run 'adopt solution sync "+sp.ID+"'"))
	}
	writeLine(w, "")

	byID := make(map[string]*domain.AdoptionPlan, len(children))
	for _, c := range children {
		byID[c.ID] = c
	}

	childBar := tui.NewProgressBar(tui.WithWidth(12))
	header := fmt.Sprintf("%-*s %-*s %*s %-5s %s",
		sourceWidth, "PRODUCT",
		idWidth, "PLAN",
		weightWidth, "WEIGHT",
		"SYNC",
		"PROGRESS",
	)
	writeLine(w, "%s", styles.Header.Render(header))
	for _, c := range sp.Children {
		child, ok := byID[c.PlanID]
		if !ok {
			writeLine(w, "%s", styles.Dim.Render(fmt.Sprintf("%-*s %-*s (missing)", sourceWidth, c.ProductID, idWidth, c.PlanID)))
			continue
		}
		writeLine(w, "%-*s %-*s %*.1f %-5s %s",
			sourceWidth, tui.Truncate(c.ProductID, sourceWidth),
			idWidth, c.PlanID,
			weightWidth, c.Weight,
			syncMark(child.NeedsSync),
			childBar.Render(child.Totals.ProgressPercentage),
		)
	}
}

// renderSolutionList prints one row per solution plan.
func renderSolutionList(w io.Writer, sps []*domain.SolutionAdoptionPlan) {
	styles := tui.NewTableStyles()
	bar := tui.NewProgressBar(tui.WithWidth(12))

	header := fmt.Sprintf("%-*s %-*s %-*s %-8s %s",
		idWidth, "SOLUTION PLAN",
		customerWidth, "CUSTOMER",
		sourceWidth, "SOLUTION",
		"PRODUCTS",
		"PROGRESS",
	)
	writeLine(w, "%s", styles.Header.Render(header))
	for _, sp := range sps {
		writeLine(w, "%-*s %-*s %-*s %-8d %s",
			idWidth, sp.ID,
			customerWidth, tui.Truncate(sp.Assignment.CustomerID, customerWidth),
			sourceWidth, tui.Truncate(sp.Assignment.SourceID, sourceWidth),
			len(sp.Children),
			bar.Render(sp.Totals.ProgressPercentage),
		)
	}
}

// renderSyncReport summarizes a plan sync.
func renderSyncReport(w io.Writer, r *plan.SyncReport) {
	bar := tui.NewProgressBar()
	writeLine(w, "Plan %s synced", r.PlanID)
	writeLine(w, "  added: %d  updated: %d  orphaned: %d  restored: %d  unchanged: %d",
		len(r.Added), len(r.Updated), len(r.Orphaned), len(r.Restored), r.Unchanged)
	if r.AttributesAdded > 0 || r.AttributesRetired > 0 {
		writeLine(w, "  attributes added: %d  retired: %d", r.AttributesAdded, r.AttributesRetired)
	}
	writeLine(w, "  progress: %s", bar.Render(r.Totals.ProgressPercentage))
	renderWarnings(w, r.Warnings)
}

// renderSolutionSyncReport summarizes a solution sync.
func renderSolutionSyncReport(w io.Writer, r *adoption.SolutionSyncReport) {
	bar := tui.NewProgressBar()
	writeLine(w, "Solution plan %s synced", r.SolutionPlanID)
	if len(r.Added) > 0 {
		writeLine(w, "  new child plans: %s", strings.Join(r.Added, ", "))
	}
	if len(r.Detached) > 0 {
		writeLine(w, "  detached child plans: %s", strings.Join(r.Detached, ", "))
	}
	if r.WeightsChanged {
		writeLine(w, "  product weights updated")
	}
	for _, child := range r.Children {
		writeLine(w, "  %s: added %d, updated %d, orphaned %d, restored %d",
			child.PlanID, len(child.Added), len(child.Updated), len(child.Orphaned), len(child.Restored))
	}
	writeLine(w, "  progress: %s", bar.Render(r.Totals.ProgressPercentage))
	for _, child := range r.Children {
		renderWarnings(w, child.Warnings)
	}
}

// renderImportResult summarizes a telemetry import.
func renderImportResult(w io.Writer, r *plan.ImportResult) {
	styles := tui.NewOutputStyles()
	bar := tui.NewProgressBar()

	writeLine(w, "Batch %s applied to plan %s", r.BatchID, r.PlanID)
	writeLine(w, "  tasks: %d  attributes updated: %d  criteria evaluated: %d  skipped rows: %d  errors: %d",
		r.Summary.TasksProcessed, r.Summary.AttributesUpdated, r.Summary.CriteriaEvaluated,
		r.Summary.RowsSkipped, r.Summary.Errors)

	for _, t := range r.TaskResults {
		line := fmt.Sprintf("  %s: %d/%d criteria met (%.0f%%)", t.TaskName, t.CriteriaMet, t.CriteriaTotal, t.CompletionPercentage)
		switch {
		case t.StatusChange != nil:
			line += fmt.Sprintf(", %s → %s", t.StatusChange.From, t.StatusChange.To)
		case t.Blocked != "":
			line += ", not auto-completed: " + t.Blocked
		}
		writeLine(w, "%s", line)
	}
	for _, rowErr := range r.RowErrors {
		writeLine(w, "%s", styles.Warning.Render("  ⚠ "+rowErr.Error()))
	}
	writeLine(w, "  progress: %s", bar.Render(r.Totals.ProgressPercentage))
}

// renderFlagResult lists what a catalog publish changed.
func renderFlagResult(w io.Writer, r *adoption.FlagResult) {
	if r.Changes.IsEmpty() {
		writeLine(w, "No template changes.")
		return
	}
	if len(r.Changes.Products) > 0 {
		writeLine(w, "Changed products: %s", strings.Join(r.Changes.Products, ", "))
	}
	if len(r.Changes.Solutions) > 0 {
		writeLine(w, "Changed solutions: %s", strings.Join(r.Changes.Solutions, ", "))
	}
	writeLine(w, "Plans flagged for sync: %d", len(r.Plans))
	writeLine(w, "Solution plans flagged for sync: %d", len(r.SolutionPlans))
}

// renderWarnings prints consistency warnings. They never fail a command.
func renderWarnings(w io.Writer, warnings []domain.Warning) {
	if len(warnings) == 0 {
		return
	}
	style := tui.NewOutputStyles().Warning
	for _, warning := range warnings {
		writeLine(w, "%s", style.Render("⚠ "+warning.String()))
	}
}

func selectionText(s domain.Selection) string {
	if s.IsAll() {
		return "ALL"
	}
	ids := s.IDs()
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

func syncMark(needsSync bool) string {
	if needsSync {
		return "stale"
	}
	return "ok"
}
