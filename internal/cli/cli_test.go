package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/progress"
	"github.com/spincycle/backend/internal/domain"
)

func sampleCustomer() domain.Customer {
	return domain.Customer{
		ID:           "cust-1",
		BusinessName: "Suds & Duds",
		TaskStatuses: domain.TaskStatusMap{
			"signed_agreement":   domain.TaskStatusComplete,
			"intake_call":        domain.TaskStatusComplete,
			"business_documents": domain.TaskStatusComplete,
			"machine_inventory":  domain.TaskStatusComplete,
			"pricing_review":     domain.TaskStatusInProgress,
		},
		TaskMetadata: domain.TaskMetadataMap{
			"signed_agreement": {UpdatedBy: "ana"},
			"pricing_review":   {UpdatedBy: "ben"},
		},
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderProgress_Golden(t *testing.T) {
	c := sampleCustomer()
	report := progress.Build(catalog.Default(), c.TaskStatuses, c.TaskMetadata, progress.ReportOptions{})

	var buf bytes.Buffer
	require.NoError(t, RenderProgress(&buf, report, true))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "progress_with_tasks", buf.Bytes())
}

func TestProgressCommand_JSON(t *testing.T) {
	data, err := json.Marshal(sampleCustomer())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "customer.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, "progress", path, "--format", "json", "--customer-visible")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   progress.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 25, resp.Data.OverallPercent)
	assert.Equal(t, "equipment_survey", resp.Data.CurrentStageID)
	// coin_mech_audit is internal
	assert.Len(t, resp.Data.Stages[1].Tasks, 2)
	assert.Equal(t, 3, resp.Data.Stages[1].TotalTasks)
}

func TestProgressCommand_MissingFile(t *testing.T) {
	out, err := run(t, "progress", filepath.Join(t.TempDir(), "nope.json"), "--format", "json")
	require.Error(t, err)
	assert.Contains(t, out, `"status": "error"`)
}

func TestCommissionCommand(t *testing.T) {
	out, err := run(t, "commission",
		"--nrr", "4000", "--mrf", "500", "--term", "36", "--other-fees", "250",
		"--cogs", "2250", "--rate", "10", "--paid", "11125",
		"--rep", "Ana", "--rep", "Ben",
		"--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			DealAmount        float64 `json:"deal_amount"`
			TotalCommission   float64 `json:"total_commission"`
			CommissionOwedNow float64 `json:"commission_owed_now"`
			PaymentStatus     string  `json:"payment_status"`
			Assignees         []struct {
				CommissionPercent float64 `json:"commission_percent"`
			} `json:"assignees"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 22250.0, resp.Data.DealAmount)
	assert.Equal(t, 2000.0, resp.Data.TotalCommission)
	assert.Equal(t, 1000.0, resp.Data.CommissionOwedNow)
	assert.Equal(t, string(domain.PaymentStatusPartial), resp.Data.PaymentStatus)
	require.Len(t, resp.Data.Assignees, 2)
	assert.Equal(t, 50.0, resp.Data.Assignees[0].CommissionPercent)
}

func TestCommissionCommand_Text(t *testing.T) {
	out, err := run(t, "commission", "--nrr", "1000", "--rate", "10", "--rep", "Ana=60", "--rep", "Ben=30")
	require.NoError(t, err)
	assert.Contains(t, out, "Total commission")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "warning:")
}

func TestCommissionCommand_InvalidRep(t *testing.T) {
	_, err := run(t, "commission", "--rep", "Ana=lots")
	assert.Error(t, err)
	_, err = run(t, "commission", "--rep", "Ana=150")
	assert.Error(t, err)
}

func TestCatalogCommand(t *testing.T) {
	out, err := run(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Laundromat Onboarding")
	assert.Contains(t, out, "Audit coin mechanisms")
	assert.Contains(t, out, "internal")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("id: x\nname: x\nstages: []\n"), 0o600))
	_, err = run(t, "catalog", "--catalog", bad)
	assert.Error(t, err)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "catalog", "--format", "xml")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "token", "operator", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "auth.operator_token", resp.Data["config_key"])
	assert.True(t, strings.HasPrefix(resp.Data["token"], "ops_"))

	_, err = run(t, "token", "root")
	assert.Error(t, err)
}
