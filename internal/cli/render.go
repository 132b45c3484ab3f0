package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/core/progress"
)

// RenderProgress prints a stage-by-stage view of a progress report. Tasks
// are listed under each stage when showTasks is set.
func RenderProgress(w io.Writer, r progress.Report, showTasks bool) error {
	s := newStyles(w)
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %d%% (%d/%d tasks)\n", s.title.Render("Onboarding progress"), r.OverallPercent, r.CompletedTasks, r.TotalTasks)
	if len(r.Stages) > 0 {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("Current stage:"), r.Stages[r.CurrentStage].Name)
	}
	b.WriteString("\n")

	for _, stage := range r.Stages {
		fmt.Fprintf(&b, "%s %-20s %d/%d\n", s.marker(stage.Status), stage.Name, stage.CompletedTasks, stage.TotalTasks)
		if !showTasks {
			continue
		}
		for _, task := range stage.Tasks {
			line := fmt.Sprintf("    %s %s", s.marker(task.Status), task.Name)
			if task.UpdatedBy != "" {
				line += " " + s.label.Render("("+task.UpdatedBy+")")
			}
			b.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderCommission prints a commission breakdown as a two-column table.
func RenderCommission(w io.Writer, bd ledger.Breakdown) error {
	s := newStyles(w)
	var b strings.Builder

	b.WriteString(s.title.Render("Commission") + "\n")
	rows := []struct {
		label string
		value string
	}{
		{"Deal amount", money(bd.DealAmount)},
		{"COGS", money(bd.Cogs)},
		{"Net deal amount", money(bd.NetDealAmount)},
		{"Commission rate", fmt.Sprintf("%.2f%%", bd.CommissionRate)},
		{"Total commission", money(bd.TotalCommission)},
		{"Paid to date", fmt.Sprintf("%s (%.1f%%)", money(bd.PaidToDateAmount), bd.PaidPercentage*100)},
		{"Earned to date", money(bd.CommissionEarnedToDate)},
		{"Already paid out", money(bd.CommissionPaidAmount)},
		{"Owed now", money(bd.CommissionOwedNow)},
		{"Payment status", bd.PaymentStatus},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %s %s\n", s.label.Render(fmt.Sprintf("%-18s", row.label)), row.value)
	}

	if len(bd.Assignees) > 0 {
		b.WriteString("\n" + s.title.Render("Sales reps") + "\n")
		for _, a := range bd.Assignees {
			name := a.RepName
			if name == "" {
				name = a.RepID
			}
			fmt.Fprintf(&b, "  %-18s %6.2f%%  total %s  owed %s\n", name, a.CommissionPercent, money(a.Commission), money(a.CommissionOwedNow))
		}
	}
	if bd.SplitWarning != "" {
		b.WriteString("\n" + s.warning.Render("warning: ") + bd.SplitWarning + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCatalog prints the workflow definition.
func RenderCatalog(w io.Writer, c *catalog.Catalog) error {
	s := newStyles(w)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", s.title.Render(c.Name), s.label.Render("("+c.ID+")"))
	for i, stage := range c.Stages {
		fmt.Fprintf(&b, "\n%d. %s %s\n", i+1, stage.Name, s.label.Render("["+stage.ID+"]"))
		for _, task := range stage.Tasks {
			visibility := ""
			if !task.CustomerVisible {
				visibility = " " + s.subtitle.Render("internal")
			}
			fmt.Fprintf(&b, "   - %-40s %-6s %s%s\n", task.Name, task.Priority, strings.Join(task.Team, ","), visibility)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
