package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

func TestCreateCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.customers.CreateCustomer(ctx, ports.CreateCustomerInput{
		BusinessName: "  Bubbles   Laundromat ",
		ContactEmail: " Ana@Example.COM",
		Actor:        "ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "cust-1", c.ID)
	assert.Equal(t, "Bubbles Laundromat", c.BusinessName)
	assert.Equal(t, "ana@example.com", c.ContactEmail)
	assert.Equal(t, "kickoff", c.CurrentStageID)
	assert.Equal(t, domain.CustomerStatusOnboarding, c.Status)

	stored, ok := env.remote.get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Bubbles Laundromat", stored.BusinessName)
	assert.Equal(t, []string{domain.EventTypeCustomerCreated}, env.eventTypes(t, c.ID))
}

func TestCreateCustomer_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.customers.CreateCustomer(ctx, ports.CreateCustomerInput{BusinessName: "   "})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)

	_, err = env.customers.CreateCustomer(ctx, ports.CreateCustomerInput{BusinessName: "Suds", ContactEmail: "nope"})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)
	assert.Empty(t, env.engine.List())
}

func TestCreateCustomer_RemoteFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	env.remote.setFail(true)

	c, err := env.customers.CreateCustomer(context.Background(), ports.CreateCustomerInput{BusinessName: "Suds"})
	assert.ErrorIs(t, err, errRemoteDown)
	require.NotNil(t, c)

	cached, ok := env.engine.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Suds", cached.BusinessName)
	assert.Equal(t, 1, env.outbox.Depth())
}

func TestGetCustomer_FallsBackToRemote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.remote.Write(ctx, "remote-only", domain.CustomerPatch{BusinessName: domain.Ptr("Spin City")}))

	c, err := env.customers.GetCustomer(ctx, "remote-only")
	require.NoError(t, err)
	assert.Equal(t, "Spin City", c.BusinessName)

	_, ok := env.engine.Get("remote-only")
	assert.True(t, ok)

	_, err = env.customers.GetCustomer(ctx, "missing")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	_, err = env.customers.GetCustomer(ctx, "")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestGetCustomers_Filter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createCustomer(t, "Bubbles")
	env.createCustomer(t, "Clean Spin")

	onHold := domain.CustomerStatusOnHold
	_, err := env.customers.UpdateCustomer(ctx, a.ID, ports.UpdateCustomerInput{Status: &onHold})
	require.NoError(t, err)

	all, err := env.customers.GetCustomers(ctx, ports.CustomerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	held, err := env.customers.GetCustomers(ctx, ports.CustomerFilter{Status: domain.CustomerStatusOnHold})
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, a.ID, held[0].ID)

	found, err := env.customers.GetCustomers(ctx, ports.CustomerFilter{Query: "SPIN"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Clean Spin", found[0].BusinessName)
}

func TestUpdateCustomer_IsDebounced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	updated, err := env.customers.UpdateCustomer(ctx, c.ID, ports.UpdateCustomerInput{ContactName: domain.Ptr("Ben")})
	require.NoError(t, err)
	assert.Equal(t, "Ben", updated.ContactName)

	stored, _ := env.remote.get(c.ID)
	assert.Empty(t, stored.ContactName)

	env.clock.Advance(debounce)
	stored, _ = env.remote.get(c.ID)
	assert.Equal(t, "Ben", stored.ContactName)

	bad := domain.CustomerStatus("closed")
	_, err = env.customers.UpdateCustomer(ctx, c.ID, ports.UpdateCustomerInput{Status: &bad})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)
	_, err = env.customers.UpdateCustomer(ctx, c.ID, ports.UpdateCustomerInput{BusinessName: domain.Ptr(" ")})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)
	_, err = env.customers.UpdateCustomer(ctx, "missing", ports.UpdateCustomerInput{ContactName: domain.Ptr("x")})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestUpdateTaskStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	for _, task := range []string{"signed_agreement", "intake_call"} {
		_, err := env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{
			CustomerID: c.ID, TaskID: task, Status: domain.TaskStatusComplete, Actor: "ana",
		})
		require.NoError(t, err)
	}
	got, err := env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{
		CustomerID: c.ID, TaskID: "business_documents", Status: domain.TaskStatusComplete, Actor: "ben",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusComplete, got.TaskStatuses["business_documents"])
	assert.Equal(t, "ben", got.TaskMetadata["business_documents"].UpdatedBy)
	assert.Equal(t, epoch, got.TaskMetadata["business_documents"].UpdatedAt)
	assert.Equal(t, "equipment_survey", got.CurrentStageID)
	assert.Contains(t, env.eventTypes(t, c.ID), domain.EventTypeStageAdvanced)

	report, err := env.customers.GetProgress(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.CompletedTasks)
	assert.Equal(t, 19, report.OverallPercent)

	env.clock.Advance(debounce)
	stored, _ := env.remote.get(c.ID)
	assert.Equal(t, "equipment_survey", stored.CurrentStageID)
	assert.Equal(t, "ana", stored.TaskMetadata["intake_call"].UpdatedBy)
}

func TestUpdateTaskStatus_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	_, err := env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{CustomerID: c.ID, TaskID: "nope", Status: domain.TaskStatusComplete})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{CustomerID: c.ID, TaskID: "launch", Status: "done"})
	assert.ErrorIs(t, err, ErrTaskInvalidStatus)
	_, err = env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{CustomerID: "missing", TaskID: "launch", Status: domain.TaskStatusComplete})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestUpdateTaskStatus_AllCompleteGoesLive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	var got *domain.Customer
	for _, task := range []string{
		"signed_agreement", "intake_call", "business_documents",
		"machine_inventory", "pricing_review", "coin_mech_audit",
		"processor_application", "bank_verification", "payment_links",
		"hardware_install", "network_config", "test_transactions",
		"staff_training", "portal_walkthrough", "launch", "thirty_day_review",
	} {
		var err error
		got, err = env.customers.UpdateTaskStatus(ctx, ports.UpdateTaskStatusInput{CustomerID: c.ID, TaskID: task, Status: domain.TaskStatusComplete})
		require.NoError(t, err)
	}
	assert.Equal(t, domain.CustomerStatusLive, got.Status)
	assert.Equal(t, "go_live", got.CurrentStageID)

	report, err := env.customers.GetProgress(ctx, c.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 100, report.OverallPercent)
}

func TestDeleteCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")
	_, err := env.customers.UpdateCustomer(ctx, c.ID, ports.UpdateCustomerInput{ContactName: domain.Ptr("Ana")})
	require.NoError(t, err)

	require.NoError(t, env.customers.DeleteCustomer(ctx, c.ID))
	_, ok := env.remote.get(c.ID)
	assert.False(t, ok)
	_, err = env.customers.GetCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	// the cancelled debounced write must not bring the row back
	env.clock.Advance(debounce)
	_, ok = env.remote.get(c.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, env.customers.DeleteCustomer(ctx, c.ID), ErrCustomerNotFound)
	assert.Contains(t, env.eventTypes(t, c.ID), domain.EventTypeCustomerDeleted)
}

func TestReloadCustomer_KeepsUnsentEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")
	_, err := env.customers.UpdateCustomer(ctx, c.ID, ports.UpdateCustomerInput{ContactName: domain.Ptr("Ana")})
	require.NoError(t, err)

	got, err := env.customers.ReloadCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.ContactName)

	_, err = env.customers.ReloadCustomer(ctx, "missing")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestNotesLinksProcessors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCustomer(t, "Bubbles")

	note, err := env.customers.AddNote(ctx, c.ID, ports.AddNoteInput{Author: "ana", Body: "prefers mornings"})
	require.NoError(t, err)
	_, err = env.customers.AddNote(ctx, c.ID, ports.AddNoteInput{Body: " "})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)

	link, err := env.customers.AddPaymentLink(ctx, c.ID, ports.AddPaymentLinkInput{URL: "https://pay.example.com/x"})
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", link.Label)
	_, err = env.customers.AddPaymentLink(ctx, c.ID, ports.AddPaymentLinkInput{URL: "ftp://example.com"})
	assert.ErrorIs(t, err, ErrCustomerInvalidInput)

	proc, err := env.customers.AddPaymentProcessor(ctx, c.ID, ports.AddPaymentProcessorInput{Name: "Stripe", MerchantID: "acct_1"})
	require.NoError(t, err)
	assert.Equal(t, "pending", proc.Status)

	got, err := env.customers.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Notes, 1)
	assert.Len(t, got.PaymentLinks, 1)
	assert.Len(t, got.PaymentProcessors, 1)

	require.NoError(t, env.customers.RemoveNote(ctx, c.ID, note.ID))
	require.NoError(t, env.customers.RemovePaymentLink(ctx, c.ID, link.ID))
	require.NoError(t, env.customers.RemovePaymentProcessor(ctx, c.ID, proc.ID))
	assert.ErrorIs(t, env.customers.RemoveNote(ctx, c.ID, note.ID), ErrNoteNotFound)
	assert.ErrorIs(t, env.customers.RemovePaymentLink(ctx, c.ID, link.ID), ErrPaymentLinkNotFound)
	assert.ErrorIs(t, env.customers.RemovePaymentProcessor(ctx, c.ID, proc.ID), ErrPaymentProcessorNotFound)

	env.flush(t)
	stored, _ := env.remote.get(c.ID)
	assert.Empty(t, stored.Notes)
	assert.Empty(t, stored.PaymentLinks)
	assert.Empty(t, stored.PaymentProcessors)
}
