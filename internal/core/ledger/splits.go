package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/spincycle/backend/internal/domain"
)

var (
	ErrInvalidSplit      = errors.New("ledger: commission percent must be between 0 and 100")
	ErrDuplicateAssignee = errors.New("ledger: sales rep already assigned")
	ErrAssigneeNotFound  = errors.New("ledger: sales rep not assigned")
)

// splitTolerance absorbs float noise from manual edits like 33.33*3.
const splitTolerance = 0.01

// Redistribute resets every split to an even share of 100. The first
// assignee absorbs the remainder, so the total is exactly 100 for any n >= 1.
// Prior relative proportions are discarded.
func Redistribute(reps domain.SalesRepList) domain.SalesRepList {
	n := len(reps)
	if n == 0 {
		return domain.SalesRepList{}
	}
	even := 100 / n
	remainder := 100 - even*n
	out := reps.Clone()
	for i := range out {
		out[i].CommissionPercent = float64(even)
	}
	out[0].CommissionPercent = float64(even + remainder)
	return out
}

// AddAssignee appends a rep and redistributes.
func AddAssignee(reps domain.SalesRepList, rep domain.SalesRepAssignment) (domain.SalesRepList, error) {
	for _, r := range reps {
		if r.RepID == rep.RepID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAssignee, rep.RepID)
		}
	}
	next := append(reps.Clone(), rep)
	return Redistribute(next), nil
}

// RemoveAssignee drops a rep and redistributes among the rest.
func RemoveAssignee(reps domain.SalesRepList, repID string) (domain.SalesRepList, error) {
	next := make(domain.SalesRepList, 0, len(reps))
	found := false
	for _, r := range reps {
		if r.RepID == repID {
			found = true
			continue
		}
		next = append(next, r)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAssigneeNotFound, repID)
	}
	return Redistribute(next), nil
}

// ValidateSplits rejects malformed percentages. A sum other than 100 is not
// an error; see SplitWarning.
func ValidateSplits(reps domain.SalesRepList) error {
	seen := make(map[string]struct{}, len(reps))
	for _, r := range reps {
		p := r.CommissionPercent
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 100 {
			return fmt.Errorf("%w: %s has %v", ErrInvalidSplit, r.RepID, p)
		}
		if _, dup := seen[r.RepID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAssignee, r.RepID)
		}
		seen[r.RepID] = struct{}{}
	}
	return nil
}

func SplitTotal(reps domain.SalesRepList) float64 {
	var total float64
	for _, r := range reps {
		total += r.CommissionPercent
	}
	return total
}

// SplitWarning returns a user-facing message when splits do not add up to
// 100, or "" when they do (or when nobody is assigned).
func SplitWarning(reps domain.SalesRepList) string {
	if len(reps) == 0 {
		return ""
	}
	total := SplitTotal(reps)
	if math.Abs(total-100) <= splitTolerance {
		return ""
	}
	return fmt.Sprintf("commission splits total %.2f%%, expected 100%%", total)
}
