package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spincycle/backend/internal/core/ledger"
	"github.com/spincycle/backend/internal/domain"
)

type commissionOptions struct {
	nonRecurringRevenue float64
	monthlyFee          float64
	otherFees           float64
	termMonths          int
	cogs                float64
	rate                float64
	paidToDate          float64
	commissionPaid      float64
	reps                []string
}

func NewCommissionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &commissionOptions{}
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Compute a deal's commission breakdown",
		Long: `Compute the deal amount, commission and what is owed now from deal
terms given as flags. Sales reps are given as name=percent; without
percentages the split is even.`,
		Example: `  spincyclectl commission --nrr 4000 --mrf 500 --term 36 --other-fees 250 \
    --cogs 2250 --rate 10 --paid 11125 --rep Ana=60 --rep Ben=40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			breakdown, err := buildCommission(opts)
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(breakdown, func(w io.Writer) error {
				return RenderCommission(w, breakdown)
			})
		},
	}
	cmd.Flags().Float64Var(&opts.nonRecurringRevenue, "nrr", 0, "non-recurring revenue")
	cmd.Flags().Float64Var(&opts.monthlyFee, "mrf", 0, "monthly recurring fee")
	cmd.Flags().Float64Var(&opts.otherFees, "other-fees", 0, "other one-off fees")
	cmd.Flags().IntVar(&opts.termMonths, "term", 0, "payment term in months")
	cmd.Flags().Float64Var(&opts.cogs, "cogs", 0, "cost of goods sold")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "commission rate in percent")
	cmd.Flags().Float64Var(&opts.paidToDate, "paid", 0, "amount the customer has paid so far")
	cmd.Flags().Float64Var(&opts.commissionPaid, "commission-paid", 0, "commission already paid out")
	cmd.Flags().StringArrayVar(&opts.reps, "rep", nil, "sales rep as name or name=percent (repeatable)")
	return cmd
}

func buildCommission(opts *commissionOptions) (ledger.Breakdown, error) {
	reps, err := parseReps(opts.reps)
	if err != nil {
		return ledger.Breakdown{}, err
	}
	if err := ledger.ValidateSplits(reps); err != nil {
		return ledger.Breakdown{}, err
	}
	if opts.rate < 0 || opts.rate > 100 {
		return ledger.Breakdown{}, fmt.Errorf("rate must be between 0 and 100")
	}

	c := &domain.Customer{
		NonRecurringRevenue:  opts.nonRecurringRevenue,
		MonthlyRecurringFee:  opts.monthlyFee,
		OtherFees:            opts.otherFees,
		PaymentTermMonths:    opts.termMonths,
		Cogs:                 opts.cogs,
		CommissionRate:       opts.rate,
		PaidToDateAmount:     opts.paidToDate,
		CommissionPaidAmount: opts.commissionPaid,
		SalesReps:            reps,
	}
	c.DealAmount = ledger.DealAmount(ledger.InputsOf(c))
	return ledger.ComputeBreakdown(c), nil
}

// parseReps reads name[=percent] pairs. If no rep carries a percentage the
// split is redistributed evenly.
func parseReps(raw []string) (domain.SalesRepList, error) {
	reps := make(domain.SalesRepList, 0, len(raw))
	explicit := false
	for i, r := range raw {
		name, pct, hasPct := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("rep %d: name is required", i+1)
		}
		rep := domain.SalesRepAssignment{RepID: strings.ToLower(name), RepName: name}
		if hasPct {
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(pct), "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("rep %s: invalid percent %q", name, pct)
			}
			rep.CommissionPercent = v
			explicit = true
		}
		reps = append(reps, rep)
	}
	if !explicit {
		reps = ledger.Redistribute(reps)
	}
	return reps, nil
}
