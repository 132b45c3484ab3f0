package dto

import (
	"math"
	"strings"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

type FinancialsRequest struct {
	NonRecurringRevenue  *float64 `json:"non_recurring_revenue"`
	MonthlyRecurringFee  *float64 `json:"monthly_recurring_fee"`
	OtherFees            *float64 `json:"other_fees"`
	PaymentTermMonths    *int     `json:"payment_term_months"`
	Cogs                 *float64 `json:"cogs"`
	CommissionRate       *float64 `json:"commission_rate"`
	PaidToDateAmount     *float64 `json:"paid_to_date_amount"`
	CommissionPaidAmount *float64 `json:"commission_paid_amount"`
}

func (r *FinancialsRequest) Validate() []string {
	var errors []string
	amounts := []struct {
		name string
		v    *float64
	}{
		{"non_recurring_revenue", r.NonRecurringRevenue},
		{"monthly_recurring_fee", r.MonthlyRecurringFee},
		{"other_fees", r.OtherFees},
		{"cogs", r.Cogs},
		{"commission_rate", r.CommissionRate},
		{"paid_to_date_amount", r.PaidToDateAmount},
		{"commission_paid_amount", r.CommissionPaidAmount},
	}
	for _, a := range amounts {
		if a.v != nil && *a.v < 0 {
			errors = append(errors, a.name+" must not be negative")
		}
	}
	if r.CommissionRate != nil && *r.CommissionRate > 100 {
		errors = append(errors, "commission_rate must be at most 100")
	}
	if r.PaymentTermMonths != nil && *r.PaymentTermMonths < 0 {
		errors = append(errors, "payment_term_months must not be negative")
	}
	return errors
}

func (r *FinancialsRequest) ToInput(actor string) ports.UpdateFinancialsInput {
	return ports.UpdateFinancialsInput{
		NonRecurringRevenue:  r.NonRecurringRevenue,
		MonthlyRecurringFee:  r.MonthlyRecurringFee,
		OtherFees:            r.OtherFees,
		PaymentTermMonths:    r.PaymentTermMonths,
		Cogs:                 r.Cogs,
		CommissionRate:       r.CommissionRate,
		PaidToDateAmount:     r.PaidToDateAmount,
		CommissionPaidAmount: r.CommissionPaidAmount,
		Actor:                actor,
	}
}

type AmountRequest struct {
	Amount float64 `json:"amount"`
}

func (r *AmountRequest) Validate() []string {
	var errors []string
	if math.IsNaN(r.Amount) || r.Amount <= 0 {
		errors = append(errors, "amount must be positive")
	}
	return errors
}

type SalesRepRequest struct {
	RepID   string `json:"rep_id"`
	RepName string `json:"rep_name"`
}

func (r *SalesRepRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.RepName) == "" {
		errors = append(errors, "rep_name is required")
	}
	return errors
}

type SplitsRequest struct {
	SalesReps []domain.SalesRepAssignment `json:"sales_reps"`
}

func (r *SplitsRequest) Validate() []string {
	var errors []string
	for _, rep := range r.SalesReps {
		if rep.RepID == "" {
			errors = append(errors, "every sales rep needs a rep_id")
			break
		}
	}
	return errors
}
