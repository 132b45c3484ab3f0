package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate())
	assert.Equal(t, "laundromat-onboarding", c.ID)
	assert.Len(t, c.Stages, 6)
	assert.Equal(t, 16, c.TotalTasks())
	assert.Equal(t, 5, c.LastIndex())
	assert.Len(t, c.TaskIDs(), 16)
}

func TestDefault_TaskLookup(t *testing.T) {
	c := Default()

	task, stageIdx, ok := c.Task("bank_verification")
	require.True(t, ok)
	assert.Equal(t, 2, stageIdx)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.True(t, task.HasTeam("finance"))
	assert.False(t, task.HasTeam("field"))

	_, _, ok = c.Task("no_such_task")
	assert.False(t, ok)
	assert.False(t, c.HasTask("no_such_task"))
	assert.Equal(t, 3, c.StageIndex("installation"))
	assert.Equal(t, -1, c.StageIndex("missing"))
}

func TestParse_NormalizesTeamsAndPriority(t *testing.T) {
	const payload = `
id: small
stages:
  - id: only
    name: Only stage
    tasks:
      - id: a
        name: Task A
        team: [Sales, " ops ", sales]
`
	c, err := Parse([]byte(payload))
	require.NoError(t, err)

	task, _, ok := c.Task("a")
	require.True(t, ok)
	assert.Equal(t, []string{"ops", "sales"}, task.Team)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "empty payload",
			payload: "   ",
		},
		{
			name: "no stages",
			payload: `
id: empty
stages: []
`,
		},
		{
			name: "stage without tasks",
			payload: `
id: bad
stages:
  - id: s1
    name: S1
    tasks: []
`,
		},
		{
			name: "duplicate task id across stages",
			payload: `
id: dup
stages:
  - id: s1
    name: S1
    tasks:
      - id: t1
        name: T1
  - id: s2
    name: S2
    tasks:
      - id: t1
        name: T1 again
`,
		},
		{
			name: "duplicate stage id",
			payload: `
id: dup
stages:
  - id: s1
    name: S1
    tasks:
      - id: t1
        name: T1
  - id: s1
    name: S1 again
    tasks:
      - id: t2
        name: T2
`,
		},
		{
			name: "unknown priority",
			payload: `
id: prio
stages:
  - id: s1
    name: S1
    tasks:
      - id: t1
        name: T1
        priority: urgent
`,
		},
		{
			name: "unknown field",
			payload: `
id: extra
owner: someone
stages:
  - id: s1
    name: S1
    tasks:
      - id: t1
        name: T1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: from-file
name: From file
stages:
  - id: s1
    name: S1
    tasks:
      - id: t1
        name: T1
        customer_visible: true
`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.ID)
	assert.Equal(t, 1, c.TotalTasks())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().ID, c.ID)
}

func TestNew_Validates(t *testing.T) {
	_, err := New("x", "X", nil)
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	c, err := New("x", "X", []Stage{{ID: "s", Name: "S", Tasks: []TaskDef{{ID: "t", Name: "T"}}}})
	require.NoError(t, err)
	assert.True(t, c.HasTask("t"))
}
