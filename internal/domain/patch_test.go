package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerPatch_IsEmpty(t *testing.T) {
	assert.True(t, CustomerPatch{}.IsEmpty())
	assert.False(t, CustomerPatch{Cogs: Ptr(0.0)}.IsEmpty())
}

func TestCustomerPatch_MergeLaterWins(t *testing.T) {
	first := CustomerPatch{BusinessName: Ptr("Suds"), Cogs: Ptr(100.0)}
	second := CustomerPatch{BusinessName: Ptr("Suds & Co"), Address: Ptr("12 Main St")}

	merged := first.Merge(second)
	assert.Equal(t, "Suds & Co", *merged.BusinessName)
	assert.Equal(t, "12 Main St", *merged.Address)
	assert.Equal(t, 100.0, *merged.Cogs)
	assert.Nil(t, merged.ContactEmail)

	// first is a value; merging never touches it
	assert.Equal(t, "Suds", *first.BusinessName)
	assert.Nil(t, first.Address)
}

func TestCustomerPatch_MergeReplacesCollections(t *testing.T) {
	first := CustomerPatch{Notes: &NoteList{{ID: "n1"}, {ID: "n2"}}}
	second := CustomerPatch{Notes: &NoteList{}}

	merged := first.Merge(second)
	require.NotNil(t, merged.Notes)
	assert.Empty(t, *merged.Notes)
}

func TestCustomerPatch_ApplyTo(t *testing.T) {
	c := &Customer{
		ID:           "c1",
		BusinessName: "Spin City",
		ContactEmail: "old@example.com",
		Machines:     MachineList{{ID: "m1", MachineNumber: 1, Type: MachineTypeWasher}},
	}
	machines := MachineList{{ID: "m2", MachineNumber: 101, Type: MachineTypeDryer, CoinsAccepted: []string{"quarter"}}}
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	CustomerPatch{
		ContactEmail: Ptr("new@example.com"),
		Machines:     &machines,
		UpdatedAt:    &now,
	}.ApplyTo(c)

	assert.Equal(t, "Spin City", c.BusinessName)
	assert.Equal(t, "new@example.com", c.ContactEmail)
	assert.Equal(t, now, c.UpdatedAt)
	require.Len(t, c.Machines, 1)
	assert.Equal(t, "m2", c.Machines[0].ID)

	machines[0].CoinsAccepted[0] = "token"
	assert.Equal(t, "quarter", c.Machines[0].CoinsAccepted[0])
}

func TestCustomerPatch_Columns(t *testing.T) {
	status := CustomerStatusLive
	cols := CustomerPatch{
		Status:            &status,
		PaymentTermMonths: Ptr(36),
		TaskStatuses:      &TaskStatusMap{"kickoff_call": TaskStatusComplete},
	}.Columns()

	assert.Len(t, cols, 3)
	assert.Equal(t, CustomerStatusLive, cols["status"])
	assert.Equal(t, 36, cols["payment_term_months"])
	assert.Equal(t, TaskStatusMap{"kickoff_call": TaskStatusComplete}, cols["task_statuses"])
	assert.Empty(t, CustomerPatch{}.Columns())
}

func TestCustomerPatch_CloneDetaches(t *testing.T) {
	reps := SalesRepList{{RepID: "r1", CommissionPercent: 100}}
	meta := TaskMetadataMap{"kickoff_call": {UpdatedBy: "ana"}}
	p := CustomerPatch{SalesReps: &reps, TaskMetadata: &meta}

	cp := p.Clone()
	reps[0].CommissionPercent = 10
	meta["kickoff_call"] = TaskMeta{UpdatedBy: "ben"}

	assert.Equal(t, 100.0, (*cp.SalesReps)[0].CommissionPercent)
	assert.Equal(t, "ana", (*cp.TaskMetadata)["kickoff_call"].UpdatedBy)
}

func TestPatchFromCustomer_RoundTrips(t *testing.T) {
	src := &Customer{
		ID:                "c1",
		BusinessName:      "Bubble Bros",
		Status:            CustomerStatusOnHold,
		DealAmount:        22250,
		PaymentTermMonths: 36,
		SalesReps:         SalesRepList{{RepID: "r1", RepName: "Ana", CommissionPercent: 100}},
		UpdatedAt:         time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	dst := &Customer{ID: "c1"}
	PatchFromCustomer(src).ApplyTo(dst)
	assert.Equal(t, src, dst)

	dst.SalesReps[0].RepName = "changed"
	assert.Equal(t, "Ana", src.SalesReps[0].RepName)
}

func TestCustomerPatch_Without(t *testing.T) {
	p := CustomerPatch{BusinessName: Ptr("Suds"), Cogs: Ptr(100.0), Notes: &NoteList{}}
	left := p.Without(CustomerPatch{BusinessName: Ptr("other"), Address: Ptr("x")})

	assert.Nil(t, left.BusinessName)
	assert.Equal(t, 100.0, *left.Cogs)
	assert.NotNil(t, left.Notes)
	assert.True(t, p.Without(p).IsEmpty())
	assert.Equal(t, "Suds", *p.BusinessName)
}
