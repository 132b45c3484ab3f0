package ledger

import "github.com/spincycle/backend/internal/domain"

type AssigneeShare struct {
	RepID                  string  `json:"rep_id"`
	RepName                string  `json:"rep_name"`
	CommissionPercent      float64 `json:"commission_percent"`
	Commission             float64 `json:"commission"`
	CommissionEarnedToDate float64 `json:"commission_earned_to_date"`
	CommissionOwedNow      float64 `json:"commission_owed_now"`
}

// Breakdown is everything the commission screen shows for one customer.
type Breakdown struct {
	DealAmount             float64         `json:"deal_amount"`
	Cogs                   float64         `json:"cogs"`
	NetDealAmount          float64         `json:"net_deal_amount"`
	CommissionRate         float64         `json:"commission_rate"`
	TotalCommission        float64         `json:"total_commission"`
	PaidToDateAmount       float64         `json:"paid_to_date_amount"`
	PaidPercentage         float64         `json:"paid_percentage"`
	CommissionEarnedToDate float64         `json:"commission_earned_to_date"`
	CommissionPaidAmount   float64         `json:"commission_paid_amount"`
	CommissionOwedNow      float64         `json:"commission_owed_now"`
	PaymentStatus          string          `json:"payment_status"`
	Assignees              []AssigneeShare `json:"assignees"`
	SplitTotal             float64         `json:"split_total"`
	SplitWarning           string          `json:"split_warning,omitempty"`
}

// ComputeBreakdown reads the persisted deal amount; it does not recompute it
// from the deal inputs.
func ComputeBreakdown(c *domain.Customer) Breakdown {
	net := NetDealAmount(c.DealAmount, c.Cogs)
	total := TotalCommission(net, c.CommissionRate)
	payout := ComputePayout(total, c.DealAmount, c.PaidToDateAmount, c.CommissionPaidAmount)

	b := Breakdown{
		DealAmount:             c.DealAmount,
		Cogs:                   c.Cogs,
		NetDealAmount:          net,
		CommissionRate:         c.CommissionRate,
		TotalCommission:        total,
		PaidToDateAmount:       c.PaidToDateAmount,
		PaidPercentage:         payout.PaidPercentage,
		CommissionEarnedToDate: payout.CommissionEarnedToDate,
		CommissionPaidAmount:   c.CommissionPaidAmount,
		CommissionOwedNow:      payout.CommissionOwedNow,
		PaymentStatus:          string(PaymentStatusFor(c.DealAmount, c.PaidToDateAmount)),
		Assignees:              make([]AssigneeShare, 0, len(c.SalesReps)),
		SplitTotal:             SplitTotal(c.SalesReps),
		SplitWarning:           SplitWarning(c.SalesReps),
	}
	for _, rep := range c.SalesReps {
		b.Assignees = append(b.Assignees, AssigneeShare{
			RepID:                  rep.RepID,
			RepName:                rep.RepName,
			CommissionPercent:      rep.CommissionPercent,
			Commission:             AssigneeCommission(total, rep.CommissionPercent),
			CommissionEarnedToDate: AssigneeCommission(payout.CommissionEarnedToDate, rep.CommissionPercent),
			CommissionOwedNow:      AssigneeCommission(payout.CommissionOwedNow, rep.CommissionPercent),
		})
	}
	return b
}
