// Package ledger computes deal amounts, commissions and proportional payouts,
// and redistributes commission splits between sales reps.
package ledger

import (
	"math"

	"github.com/spincycle/backend/internal/domain"
)

type DealInputs struct {
	NonRecurringRevenue float64 `json:"non_recurring_revenue"`
	MonthlyRecurringFee float64 `json:"monthly_recurring_fee"`
	OtherFees           float64 `json:"other_fees"`
	PaymentTermMonths   int     `json:"payment_term_months"`
}

func InputsOf(c *domain.Customer) DealInputs {
	return DealInputs{
		NonRecurringRevenue: c.NonRecurringRevenue,
		MonthlyRecurringFee: c.MonthlyRecurringFee,
		OtherFees:           c.OtherFees,
		PaymentTermMonths:   c.PaymentTermMonths,
	}
}

// DealAmount = non-recurring revenue + monthly fee * term + other fees.
// The result is persisted on the customer, not derived on read.
func DealAmount(in DealInputs) float64 {
	return in.NonRecurringRevenue + in.MonthlyRecurringFee*float64(in.PaymentTermMonths) + in.OtherFees
}

func NetDealAmount(dealAmount, cogs float64) float64 {
	return dealAmount - cogs
}

func TotalCommission(netDealAmount, commissionRate float64) float64 {
	return netDealAmount * commissionRate / 100
}

func AssigneeCommission(totalCommission, commissionPercent float64) float64 {
	return totalCommission * commissionPercent / 100
}

type Payout struct {
	PaidPercentage         float64 `json:"paid_percentage"`
	CommissionEarnedToDate float64 `json:"commission_earned_to_date"`
	CommissionOwedNow      float64 `json:"commission_owed_now"`
}

// ComputePayout recognizes commission in proportion to cash collected. What
// is owed now never goes negative, even after an advance.
func ComputePayout(totalCommission, dealAmount, paidToDate, commissionPaid float64) Payout {
	var paidPct float64
	if dealAmount != 0 {
		paidPct = paidToDate / dealAmount
	}
	earned := totalCommission * paidPct
	return Payout{
		PaidPercentage:         paidPct,
		CommissionEarnedToDate: earned,
		CommissionOwedNow:      math.Max(0, earned-commissionPaid),
	}
}

// PaymentStatusFor derives the payment status from cash collected.
func PaymentStatusFor(dealAmount, paidToDate float64) domain.PaymentStatus {
	switch {
	case paidToDate <= 0:
		return domain.PaymentStatusUnpaid
	case dealAmount > 0 && paidToDate >= dealAmount:
		return domain.PaymentStatusPaid
	default:
		return domain.PaymentStatusPartial
	}
}
