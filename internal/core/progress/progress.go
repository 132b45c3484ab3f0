// Package progress derives stage status, the current stage and overall
// completion from a workflow catalog and a customer's task status map.
// Everything here is a pure function of its inputs.
package progress

import (
	"errors"
	"math"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/domain"
)

var ErrStageNotFound = errors.New("progress: stage not found")

// StageStatus is complete when every task is complete, in_progress when any
// task has been touched, otherwise not_started.
func StageStatus(stage catalog.Stage, statuses domain.TaskStatusMap) domain.TaskStatus {
	if len(stage.Tasks) == 0 {
		return domain.TaskStatusNotStarted
	}
	complete := 0
	touched := false
	for _, task := range stage.Tasks {
		switch statuses.Get(task.ID) {
		case domain.TaskStatusComplete:
			complete++
			touched = true
		case domain.TaskStatusInProgress:
			touched = true
		}
	}
	if complete == len(stage.Tasks) {
		return domain.TaskStatusComplete
	}
	if touched {
		return domain.TaskStatusInProgress
	}
	return domain.TaskStatusNotStarted
}

// StageStatusByID resolves the stage in the catalog first.
func StageStatusByID(c *catalog.Catalog, stageID string, statuses domain.TaskStatusMap) (domain.TaskStatus, error) {
	stage, ok := c.Stage(stageID)
	if !ok {
		return "", ErrStageNotFound
	}
	return StageStatus(stage, statuses), nil
}

// CurrentStageIndex tracks the most advanced stage with any progress. A
// fully closed stage moves the pointer one forward, clamped to the last
// stage. No progress at all yields 0.
func CurrentStageIndex(c *catalog.Catalog, statuses domain.TaskStatusMap) int {
	last := c.LastIndex()
	for i := last; i >= 0; i-- {
		stage := c.Stages[i]
		if !hasProgress(stage, statuses) {
			continue
		}
		if StageStatus(stage, statuses) != domain.TaskStatusComplete {
			return i
		}
		return min(i+1, last)
	}
	return 0
}

// CurrentStage returns the stage CurrentStageIndex points at. The zero
// Stage is returned for an empty catalog.
func CurrentStage(c *catalog.Catalog, statuses domain.TaskStatusMap) catalog.Stage {
	if len(c.Stages) == 0 {
		return catalog.Stage{}
	}
	return c.Stages[CurrentStageIndex(c, statuses)]
}

func hasProgress(stage catalog.Stage, statuses domain.TaskStatusMap) bool {
	for _, task := range stage.Tasks {
		if statuses.Get(task.ID) != domain.TaskStatusNotStarted {
			return true
		}
	}
	return false
}

// CompletedTasks counts catalog tasks marked complete. Map keys the catalog
// does not know are ignored.
func CompletedTasks(c *catalog.Catalog, statuses domain.TaskStatusMap) int {
	n := 0
	for _, stage := range c.Stages {
		for _, task := range stage.Tasks {
			if statuses.Get(task.ID) == domain.TaskStatusComplete {
				n++
			}
		}
	}
	return n
}

// OverallPercent is round(100 * completed / total) over the whole catalog.
func OverallPercent(c *catalog.Catalog, statuses domain.TaskStatusMap) int {
	total := c.TotalTasks()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(CompletedTasks(c, statuses)) / float64(total)))
}
