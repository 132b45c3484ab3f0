package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

func TestUpdateFinancials_RecomputesDealAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	got, err := env.ledger.UpdateFinancials(ctx, c.ID, ports.UpdateFinancialsInput{
		NonRecurringRevenue: domain.Ptr(4000.0),
		MonthlyRecurringFee: domain.Ptr(500.0),
		OtherFees:           domain.Ptr(250.0),
		PaymentTermMonths:   domain.Ptr(36),
	})
	require.NoError(t, err)
	assert.Equal(t, 22250.0, got.DealAmount)

	// cogs is not a deal input
	got, err = env.ledger.UpdateFinancials(ctx, c.ID, ports.UpdateFinancialsInput{Cogs: domain.Ptr(2000.0)})
	require.NoError(t, err)
	assert.Equal(t, 22250.0, got.DealAmount)

	got, err = env.ledger.UpdateFinancials(ctx, c.ID, ports.UpdateFinancialsInput{PaymentTermMonths: domain.Ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 10250.0, got.DealAmount)
	assert.Equal(t, 2000.0, got.Cogs)

	env.clock.Advance(debounce)
	stored, _ := env.remote.get(c.ID)
	assert.Equal(t, 10250.0, stored.DealAmount)
}

func TestUpdateFinancials_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	inputs := []ports.UpdateFinancialsInput{
		{Cogs: domain.Ptr(-1.0)},
		{CommissionRate: domain.Ptr(101.0)},
		{OtherFees: domain.Ptr(math.NaN())},
		{PaymentTermMonths: domain.Ptr(-3)},
	}
	for _, in := range inputs {
		_, err := env.ledger.UpdateFinancials(ctx, c.ID, in)
		assert.ErrorIs(t, err, ErrLedgerInvalidInput)
	}
}

func TestRecordPayment_DerivesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")
	_, err := env.ledger.UpdateFinancials(ctx, c.ID, ports.UpdateFinancialsInput{NonRecurringRevenue: domain.Ptr(1000.0)})
	require.NoError(t, err)

	got, err := env.ledger.RecordPayment(ctx, c.ID, 400, "ana")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPartial, got.PaymentStatus)

	got, err = env.ledger.RecordPayment(ctx, c.ID, 600, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.PaidToDateAmount)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)

	_, err = env.ledger.RecordPayment(ctx, c.ID, 0, "ana")
	assert.ErrorIs(t, err, ErrLedgerInvalidInput)
	_, err = env.ledger.RecordPayment(ctx, c.ID, -5, "ana")
	assert.ErrorIs(t, err, ErrLedgerInvalidInput)
	assert.Contains(t, env.eventTypes(t, c.ID), domain.EventTypePaymentRecorded)
}

func TestCommission_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	_, err := env.ledger.UpdateFinancials(ctx, c.ID, ports.UpdateFinancialsInput{
		NonRecurringRevenue: domain.Ptr(22000.0),
		Cogs:                domain.Ptr(2000.0),
		CommissionRate:      domain.Ptr(10.0),
		PaidToDateAmount:    domain.Ptr(11000.0),
	})
	require.NoError(t, err)
	_, err = env.ledger.AddSalesRep(ctx, c.ID, ports.AddSalesRepInput{RepName: "Ana"})
	require.NoError(t, err)

	b, err := env.ledger.GetCommission(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20000.0, b.NetDealAmount)
	assert.Equal(t, 2000.0, b.TotalCommission)
	assert.Equal(t, 1000.0, b.CommissionEarnedToDate)
	assert.Equal(t, 1000.0, b.CommissionOwedNow)
	assert.Equal(t, string(domain.PaymentStatusPartial), b.PaymentStatus)

	_, err = env.ledger.RecordCommissionPayout(ctx, c.ID, 1500, "ops")
	require.NoError(t, err)
	b, err = env.ledger.GetCommission(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.CommissionOwedNow)
}

func TestSalesReps_Redistribute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	for _, name := range []string{"Ana", "Ben", "Cy"} {
		_, err := env.ledger.AddSalesRep(ctx, c.ID, ports.AddSalesRepInput{RepName: name})
		require.NoError(t, err)
	}
	reps, err := env.ledger.AddSalesRep(ctx, c.ID, ports.AddSalesRepInput{RepID: "rep-1", RepName: "Ana again"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateAssignee)
	assert.Nil(t, reps)

	got, err := env.customers.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{34, 33, 33}, percents(got.SalesReps))

	reps, err = env.ledger.RemoveSalesRep(ctx, c.ID, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50}, percents(reps))
	assert.Equal(t, "Ben", reps[0].RepName)

	_, err = env.ledger.RemoveSalesRep(ctx, c.ID, "rep-1")
	assert.ErrorIs(t, err, ledger.ErrAssigneeNotFound)

	_, err = env.ledger.AddSalesRep(ctx, c.ID, ports.AddSalesRepInput{RepName: " "})
	assert.ErrorIs(t, err, ErrLedgerInvalidInput)
}

func TestUpdateSplits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")
	for _, name := range []string{"Ana", "Ben"} {
		_, err := env.ledger.AddSalesRep(ctx, c.ID, ports.AddSalesRepInput{RepName: name})
		require.NoError(t, err)
	}

	b, err := env.ledger.UpdateSplits(ctx, c.ID, domain.SalesRepList{
		{RepID: "rep-1", CommissionPercent: 60},
		{RepID: "rep-2", CommissionPercent: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, b.SplitTotal)
	assert.NotEmpty(t, b.SplitWarning)
	assert.Equal(t, "Ana", b.Assignees[0].RepName)

	_, err = env.ledger.UpdateSplits(ctx, c.ID, domain.SalesRepList{{RepID: "rep-1", CommissionPercent: -10}})
	assert.ErrorIs(t, err, ledger.ErrInvalidSplit)

	got, err := env.customers.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{60, 30}, percents(got.SalesReps))
}

func percents(list domain.SalesRepList) []float64 {
	out := make([]float64, len(list))
	for i, r := range list {
		out[i] = r.CommissionPercent
	}
	return out
}
