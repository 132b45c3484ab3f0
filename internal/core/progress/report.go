package progress

import (
	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/domain"
)

type TaskProgress struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Team            []string          `json:"team"`
	Priority        catalog.Priority  `json:"priority"`
	CustomerVisible bool              `json:"customer_visible"`
	Status          domain.TaskStatus `json:"status"`
	UpdatedBy       string            `json:"updated_by,omitempty"`
}

type StageProgress struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Status         domain.TaskStatus `json:"status"`
	CompletedTasks int               `json:"completed_tasks"`
	TotalTasks     int               `json:"total_tasks"`
	Tasks          []TaskProgress    `json:"tasks"`
}

// Report is the full derived view of one customer's workflow.
type Report struct {
	CatalogID      string          `json:"catalog_id"`
	CurrentStageID string          `json:"current_stage_id"`
	CurrentStage   int             `json:"current_stage_index"`
	OverallPercent int             `json:"overall_percent"`
	CompletedTasks int             `json:"completed_tasks"`
	TotalTasks     int             `json:"total_tasks"`
	Stages         []StageProgress `json:"stages"`
}

type ReportOptions struct {
	// CustomerVisibleOnly drops internal tasks from the per-stage task
	// lists. Stage status and percentages still count every task.
	CustomerVisibleOnly bool
}

// Build assembles a Report. Metadata is optional.
func Build(c *catalog.Catalog, statuses domain.TaskStatusMap, metadata domain.TaskMetadataMap, opts ReportOptions) Report {
	report := Report{
		CatalogID:      c.ID,
		OverallPercent: OverallPercent(c, statuses),
		CompletedTasks: CompletedTasks(c, statuses),
		TotalTasks:     c.TotalTasks(),
		Stages:         make([]StageProgress, 0, len(c.Stages)),
	}
	if len(c.Stages) > 0 {
		report.CurrentStage = CurrentStageIndex(c, statuses)
		report.CurrentStageID = c.Stages[report.CurrentStage].ID
	}

	for _, stage := range c.Stages {
		sp := StageProgress{
			ID:         stage.ID,
			Name:       stage.Name,
			Status:     StageStatus(stage, statuses),
			TotalTasks: len(stage.Tasks),
			Tasks:      make([]TaskProgress, 0, len(stage.Tasks)),
		}
		for _, task := range stage.Tasks {
			status := statuses.Get(task.ID)
			if status == domain.TaskStatusComplete {
				sp.CompletedTasks++
			}
			if opts.CustomerVisibleOnly && !task.CustomerVisible {
				continue
			}
			tp := TaskProgress{
				ID:              task.ID,
				Name:            task.Name,
				Team:            task.Team,
				Priority:        task.Priority,
				CustomerVisible: task.CustomerVisible,
				Status:          status,
			}
			if meta, ok := metadata[task.ID]; ok {
				tp.UpdatedBy = meta.UpdatedBy
			}
			sp.Tasks = append(sp.Tasks, tp)
		}
		report.Stages = append(report.Stages, sp)
	}
	return report
}
