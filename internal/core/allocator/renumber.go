package allocator

import (
	"fmt"

	"github.com/spincycle/backend/internal/domain"
)

// RenumberResult describes what Renumber changed. SwappedWithID is empty for
// a plain reassignment.
type RenumberResult struct {
	MachineID     string `json:"machine_id"`
	OldNumber     int    `json:"old_number"`
	NewNumber     int    `json:"new_number"`
	SwappedWithID string `json:"swapped_with_id,omitempty"`
}

func (r RenumberResult) Swapped() bool { return r.SwappedWithID != "" }

// Renumber moves machineID to newNumber and returns a new list. If another
// machine holds newNumber the two trade numbers; both changes are in the
// same returned list so callers persist them as one write. The input list is
// never modified.
func Renumber(machines domain.MachineList, machineID string, newNumber int, privileged bool) (domain.MachineList, RenumberResult, error) {
	idx := machines.Index(machineID)
	if idx < 0 {
		return nil, RenumberResult{}, fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
	}
	target := machines[idx]
	result := RenumberResult{MachineID: machineID, OldNumber: target.MachineNumber, NewNumber: newNumber}

	if !privileged && !IsInRange(newNumber, target.Type) {
		r, err := RangeFor(target.Type)
		if err != nil {
			return nil, RenumberResult{}, err
		}
		return nil, RenumberResult{}, fmt.Errorf("%w: %s %d not in %d-%d", ErrOutOfRange, target.Type, newNumber, r.Min, r.Max)
	}
	if newNumber <= 0 {
		return nil, RenumberResult{}, fmt.Errorf("%w: %d", ErrOutOfRange, newNumber)
	}

	out := machines.Clone()
	if newNumber == target.MachineNumber {
		return out, result, nil
	}
	for i := range out {
		if i != idx && out[i].MachineNumber == newNumber {
			out[i].MachineNumber = target.MachineNumber
			result.SwappedWithID = out[i].ID
			break
		}
	}
	out[idx].MachineNumber = newNumber
	return out, result, nil
}
