// Package catalog holds the static onboarding workflow: an ordered list of
// stages, each an ordered list of tasks. A Catalog is read-only once loaded.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidCatalog = errors.New("catalog: invalid definition")

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// TaskDef is one unit of onboarding work.
type TaskDef struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Team            []string `json:"team" yaml:"team"`
	Priority        Priority `json:"priority" yaml:"priority"`
	CustomerVisible bool     `json:"customer_visible" yaml:"customer_visible"`
}

// HasTeam reports whether team owns the task.
func (t TaskDef) HasTeam(team string) bool {
	for _, m := range t.Team {
		if m == team {
			return true
		}
	}
	return false
}

// Stage is an ordered phase of the workflow.
type Stage struct {
	ID    string    `json:"id" yaml:"id"`
	Name  string    `json:"name" yaml:"name"`
	Tasks []TaskDef `json:"tasks" yaml:"tasks"`
}

// TaskIDs returns the stage's task ids in order.
func (s Stage) TaskIDs() []string {
	ids := make([]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// Catalog is the full workflow definition.
type Catalog struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Stages []Stage `json:"stages" yaml:"stages"`

	taskStage map[string]int
}

// Validate checks the catalog is self-consistent: non-empty, unique stage
// and task ids, every stage has at least one task, known priorities.
func (c *Catalog) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCatalog)
	}
	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: catalog %s: at least one stage is required", ErrInvalidCatalog, c.ID)
	}
	stages := map[string]struct{}{}
	tasks := map[string]string{}
	for i, stage := range c.Stages {
		if stage.ID == "" {
			return fmt.Errorf("%w: stage[%d]: id is required", ErrInvalidCatalog, i)
		}
		if _, dup := stages[stage.ID]; dup {
			return fmt.Errorf("%w: duplicate stage id %s", ErrInvalidCatalog, stage.ID)
		}
		stages[stage.ID] = struct{}{}
		if len(stage.Tasks) == 0 {
			return fmt.Errorf("%w: stage %s: at least one task is required", ErrInvalidCatalog, stage.ID)
		}
		for j, task := range stage.Tasks {
			if task.ID == "" {
				return fmt.Errorf("%w: stage %s task[%d]: id is required", ErrInvalidCatalog, stage.ID, j)
			}
			if owner, dup := tasks[task.ID]; dup {
				return fmt.Errorf("%w: task id %s appears in stages %s and %s", ErrInvalidCatalog, task.ID, owner, stage.ID)
			}
			tasks[task.ID] = stage.ID
			if task.Priority != "" && !task.Priority.Valid() {
				return fmt.Errorf("%w: task %s: unknown priority %q", ErrInvalidCatalog, task.ID, task.Priority)
			}
		}
	}
	return nil
}

// normalize trims ids, dedupes and sorts team sets, defaults priorities and
// builds the task lookup index. Callers validate afterwards.
func (c *Catalog) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	for i := range c.Stages {
		stage := &c.Stages[i]
		stage.ID = strings.TrimSpace(stage.ID)
		for j := range stage.Tasks {
			task := &stage.Tasks[j]
			task.ID = strings.TrimSpace(task.ID)
			task.Team = normalizeTeam(task.Team)
			if task.Priority == "" {
				task.Priority = PriorityMedium
			}
		}
	}
	c.taskStage = make(map[string]int)
	for i, stage := range c.Stages {
		for _, task := range stage.Tasks {
			if _, seen := c.taskStage[task.ID]; !seen {
				c.taskStage[task.ID] = i
			}
		}
	}
}

func normalizeTeam(team []string) []string {
	if len(team) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(team))
	out := make([]string, 0, len(team))
	for _, m := range team {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// New builds a catalog from stages, normalizing and validating it.
func New(id, name string, stages []Stage) (*Catalog, error) {
	c := &Catalog{ID: id, Name: name, Stages: stages}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// TotalTasks is the fixed denominator for overall progress.
func (c *Catalog) TotalTasks() int {
	n := 0
	for _, s := range c.Stages {
		n += len(s.Tasks)
	}
	return n
}

func (c *Catalog) LastIndex() int {
	return len(c.Stages) - 1
}

func (c *Catalog) Stage(id string) (Stage, bool) {
	for _, s := range c.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (c *Catalog) StageIndex(id string) int {
	for i, s := range c.Stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Task looks up a task and the index of the stage that owns it.
func (c *Catalog) Task(id string) (TaskDef, int, bool) {
	idx, ok := c.taskStage[id]
	if !ok {
		return TaskDef{}, -1, false
	}
	for _, t := range c.Stages[idx].Tasks {
		if t.ID == id {
			return t, idx, true
		}
	}
	return TaskDef{}, -1, false
}

func (c *Catalog) HasTask(id string) bool {
	_, ok := c.taskStage[id]
	return ok
}

// TaskIDs returns every task id in workflow order.
func (c *Catalog) TaskIDs() []string {
	ids := make([]string, 0, c.TotalTasks())
	for _, s := range c.Stages {
		ids = append(ids, s.TaskIDs()...)
	}
	return ids
}
