package ports

import (
	"context"
	"time"

	"github.com/spincycle/backend/internal/core/allocator"
	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/core/progress"
	"github.com/spincycle/backend/internal/domain"
)

// CustomerStore is the working copy services read and mutate. The sync
// engine implements it.
type CustomerStore interface {
	Mutate(id string, patch domain.CustomerPatch, debounce time.Duration) (*domain.Customer, error)
	MutateAndWait(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	Get(id string) (*domain.Customer, bool)
	List() []*domain.Customer
	Load(ctx context.Context, id string) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	DefaultDebounce() time.Duration
	Now() time.Time
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomers(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, input UpdateCustomerInput) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	ReloadCustomer(ctx context.Context, id string) (*domain.Customer, error)

	GetProgress(ctx context.Context, id string, customerVisibleOnly bool) (*progress.Report, error)
	UpdateTaskStatus(ctx context.Context, input UpdateTaskStatusInput) (*domain.Customer, error)

	AddNote(ctx context.Context, id string, input AddNoteInput) (*domain.Note, error)
	RemoveNote(ctx context.Context, id, noteID string) error
	AddPaymentLink(ctx context.Context, id string, input AddPaymentLinkInput) (*domain.PaymentLink, error)
	RemovePaymentLink(ctx context.Context, id, linkID string) error
	AddPaymentProcessor(ctx context.Context, id string, input AddPaymentProcessorInput) (*domain.PaymentProcessor, error)
	RemovePaymentProcessor(ctx context.Context, id, processorID string) error

	GetTimeline(ctx context.Context, id string, limit int) ([]domain.TimelineEvent, error)
}

type CreateCustomerInput struct {
	BusinessName string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Address      string
	Actor        string
}

type UpdateCustomerInput struct {
	BusinessName *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Address      *string
	Status       *domain.CustomerStatus
	Actor        string
}

type CustomerFilter struct {
	Status domain.CustomerStatus
	// Query matches business or contact name, case-insensitively.
	Query string
}

type UpdateTaskStatusInput struct {
	CustomerID string
	TaskID     string
	Status     domain.TaskStatus
	Actor      string
}

type AddNoteInput struct {
	Author string
	Body   string
}

type AddPaymentLinkInput struct {
	Label string
	URL   string
}

type AddPaymentProcessorInput struct {
	Name       string
	MerchantID string
	Status     string
}

type LedgerService interface {
	UpdateFinancials(ctx context.Context, id string, input UpdateFinancialsInput) (*domain.Customer, error)
	RecordPayment(ctx context.Context, id string, amount float64, actor string) (*domain.Customer, error)
	RecordCommissionPayout(ctx context.Context, id string, amount float64, actor string) (*domain.Customer, error)
	AddSalesRep(ctx context.Context, id string, input AddSalesRepInput) (domain.SalesRepList, error)
	RemoveSalesRep(ctx context.Context, id, repID string) (domain.SalesRepList, error)
	UpdateSplits(ctx context.Context, id string, reps domain.SalesRepList) (*ledger.Breakdown, error)
	GetCommission(ctx context.Context, id string) (*ledger.Breakdown, error)
}

// UpdateFinancialsInput changes only the fields that are set. DealAmount is
// always derived from the revenue inputs.
type UpdateFinancialsInput struct {
	NonRecurringRevenue  *float64
	MonthlyRecurringFee  *float64
	OtherFees            *float64
	PaymentTermMonths    *int
	Cogs                 *float64
	CommissionRate       *float64
	PaidToDateAmount     *float64
	CommissionPaidAmount *float64
	Actor                string
}

type AddSalesRepInput struct {
	RepID   string
	RepName string
}

type EquipmentService interface {
	AddMachine(ctx context.Context, id string, input AddMachineInput) (*domain.Machine, error)
	UpdateMachine(ctx context.Context, id, machineID string, input UpdateMachineInput) (*domain.Machine, error)
	RemoveMachine(ctx context.Context, id, machineID string) error
	RenumberMachine(ctx context.Context, id, machineID string, newNumber int, privileged bool) (*allocator.RenumberResult, error)
	CloneMachine(ctx context.Context, id, machineID string, count int) (domain.MachineList, error)
	NextMachineNumber(ctx context.Context, id string, machineType domain.MachineType) (int, error)
}

type AddMachineInput struct {
	Type          domain.MachineType
	Make          string
	Model         string
	SerialNumber  string
	CoinsAccepted []string
	Pricing       float64
	// MachineNumber nil means take the next free number in range.
	MachineNumber *int
	Privileged    bool
}

type UpdateMachineInput struct {
	Make          *string
	Model         *string
	SerialNumber  *string
	CoinsAccepted *[]string
	Pricing       *float64
}
