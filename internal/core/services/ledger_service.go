package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

type LedgerServiceConfig struct {
	Store        ports.CustomerStore
	TimelineRepo ports.TimelineRepository
	Logger       *logger.Logger
	Locks        *KeyLocker
	NewID        func() string
}

type ledgerService struct {
	customerAccess
	newID func() string
}

func NewLedgerService(cfg LedgerServiceConfig) ports.LedgerService {
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &ledgerService{
		customerAccess: newCustomerAccess(cfg.Store, cfg.TimelineRepo, cfg.Logger, cfg.Locks),
		newID:          newID,
	}
}

func validAmount(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", ErrLedgerInvalidInput, name)
	}
	return nil
}

func validateFinancials(in ports.UpdateFinancialsInput) error {
	checks := []struct {
		name string
		v    *float64
	}{
		{"non_recurring_revenue", in.NonRecurringRevenue},
		{"monthly_recurring_fee", in.MonthlyRecurringFee},
		{"other_fees", in.OtherFees},
		{"cogs", in.Cogs},
		{"commission_rate", in.CommissionRate},
		{"paid_to_date_amount", in.PaidToDateAmount},
		{"commission_paid_amount", in.CommissionPaidAmount},
	}
	for _, c := range checks {
		if err := validAmount(c.name, c.v); err != nil {
			return err
		}
	}
	if in.CommissionRate != nil && *in.CommissionRate > 100 {
		return fmt.Errorf("%w: commission_rate must be at most 100", ErrLedgerInvalidInput)
	}
	if in.PaymentTermMonths != nil && *in.PaymentTermMonths < 0 {
		return fmt.Errorf("%w: payment_term_months must not be negative", ErrLedgerInvalidInput)
	}
	return nil
}

// UpdateFinancials recomputes the deal amount whenever one of its inputs is
// part of the update, and rederives the payment status.
func (s *ledgerService) UpdateFinancials(ctx context.Context, id string, input ports.UpdateFinancialsInput) (*domain.Customer, error) {
	if err := validateFinancials(input); err != nil {
		return nil, err
	}

	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		patch := domain.CustomerPatch{
			NonRecurringRevenue:  input.NonRecurringRevenue,
			MonthlyRecurringFee:  input.MonthlyRecurringFee,
			OtherFees:            input.OtherFees,
			PaymentTermMonths:    input.PaymentTermMonths,
			Cogs:                 input.Cogs,
			CommissionRate:       input.CommissionRate,
			PaidToDateAmount:     input.PaidToDateAmount,
			CommissionPaidAmount: input.CommissionPaidAmount,
		}
		next := c.Clone()
		patch.ApplyTo(next)

		dealChanged := input.NonRecurringRevenue != nil || input.MonthlyRecurringFee != nil ||
			input.OtherFees != nil || input.PaymentTermMonths != nil
		if dealChanged {
			next.DealAmount = ledger.DealAmount(ledger.InputsOf(next))
			patch.DealAmount = domain.Ptr(next.DealAmount)
		}
		if status := ledger.PaymentStatusFor(next.DealAmount, next.PaidToDateAmount); status != c.PaymentStatus {
			patch.PaymentStatus = &status
		}
		return patch, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, domain.EventTypeFinancials, "Financials updated", domain.JSONB{
		"deal_amount": customer.DealAmount,
		"actor":       input.Actor,
	})
	return customer, nil
}

func (s *ledgerService) RecordPayment(ctx context.Context, id string, amount float64, actor string) (*domain.Customer, error) {
	if err := validAmount("amount", &amount); err != nil || amount == 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrLedgerInvalidInput)
	}
	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		paid := c.PaidToDateAmount + amount
		return domain.CustomerPatch{
			PaidToDateAmount: &paid,
			PaymentStatus:    domain.Ptr(ledger.PaymentStatusFor(c.DealAmount, paid)),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, domain.EventTypePaymentRecorded, fmt.Sprintf("Payment of %.2f recorded", amount), domain.JSONB{
		"amount":         amount,
		"paid_to_date":   customer.PaidToDateAmount,
		"payment_status": string(customer.PaymentStatus),
		"actor":          actor,
	})
	return customer, nil
}

func (s *ledgerService) RecordCommissionPayout(ctx context.Context, id string, amount float64, actor string) (*domain.Customer, error) {
	if err := validAmount("amount", &amount); err != nil || amount == 0 {
		return nil, fmt.Errorf("%w: payout amount must be positive", ErrLedgerInvalidInput)
	}
	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		return domain.CustomerPatch{CommissionPaidAmount: domain.Ptr(c.CommissionPaidAmount + amount)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, domain.EventTypeCommissionPaid, fmt.Sprintf("Commission payout of %.2f recorded", amount), domain.JSONB{
		"amount": amount,
		"actor":  actor,
	})
	return customer, nil
}

func (s *ledgerService) AddSalesRep(ctx context.Context, id string, input ports.AddSalesRepInput) (domain.SalesRepList, error) {
	rep := domain.SalesRepAssignment{
		RepID:   strings.TrimSpace(input.RepID),
		RepName: cleanText(input.RepName),
	}
	if rep.RepName == "" {
		return nil, fmt.Errorf("%w: rep_name is required", ErrLedgerInvalidInput)
	}
	if rep.RepID == "" {
		rep.RepID = s.newID()
	}
	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		reps, err := ledger.AddAssignee(c.SalesReps, rep)
		if err != nil {
			return domain.CustomerPatch{}, err
		}
		return domain.CustomerPatch{SalesReps: &reps}, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, domain.EventTypeSalesSplit, fmt.Sprintf("%s added to the deal", rep.RepName), domain.JSONB{
		"rep_id": rep.RepID,
		"reps":   len(customer.SalesReps),
	})
	return customer.SalesReps, nil
}

func (s *ledgerService) RemoveSalesRep(ctx context.Context, id, repID string) (domain.SalesRepList, error) {
	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		reps, err := ledger.RemoveAssignee(c.SalesReps, repID)
		if err != nil {
			return domain.CustomerPatch{}, err
		}
		return domain.CustomerPatch{SalesReps: &reps}, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, domain.EventTypeSalesSplit, "Sales rep removed from the deal", domain.JSONB{
		"rep_id": repID,
		"reps":   len(customer.SalesReps),
	})
	return customer.SalesReps, nil
}

// UpdateSplits stores manual percentages as given. A total other than 100 is
// accepted and reported through the breakdown's warning.
func (s *ledgerService) UpdateSplits(ctx context.Context, id string, reps domain.SalesRepList) (*ledger.Breakdown, error) {
	if err := ledger.ValidateSplits(reps); err != nil {
		return nil, err
	}
	customer, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		known := make(map[string]string, len(c.SalesReps))
		for _, r := range c.SalesReps {
			known[r.RepID] = r.RepName
		}
		next := reps.Clone()
		for i := range next {
			if next[i].RepName == "" {
				next[i].RepName = known[next[i].RepID]
			}
		}
		return domain.CustomerPatch{SalesReps: &next}, nil
	})
	if err != nil {
		return nil, err
	}
	breakdown := ledger.ComputeBreakdown(customer)
	s.record(ctx, id, domain.EventTypeSalesSplit, "Commission splits edited", domain.JSONB{
		"split_total": breakdown.SplitTotal,
	})
	return &breakdown, nil
}

func (s *ledgerService) GetCommission(ctx context.Context, id string) (*ledger.Breakdown, error) {
	customer, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	breakdown := ledger.ComputeBreakdown(customer)
	return &breakdown, nil
}
