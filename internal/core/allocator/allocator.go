// Package allocator assigns machine numbers inside type-scoped ranges and
// keeps them unique per customer.
package allocator

import (
	"errors"
	"fmt"

	"github.com/spincycle/backend/internal/domain"
)

var (
	ErrOutOfRange      = errors.New("allocator: machine number out of range")
	ErrDuplicateNumber = errors.New("allocator: machine number already in use")
	ErrMachineNotFound = errors.New("allocator: machine not found")
	ErrUnknownType     = errors.New("allocator: unknown machine type")
)

type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(n int) bool { return n >= r.Min && n <= r.Max }

func (r Range) Size() int { return r.Max - r.Min + 1 }

var ranges = map[domain.MachineType]Range{
	domain.MachineTypeWasher: {Min: 1, Max: 99},
	domain.MachineTypeDryer:  {Min: 101, Max: 199},
}

func RangeFor(t domain.MachineType) (Range, error) {
	r, ok := ranges[t]
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return r, nil
}

func IsInRange(n int, t domain.MachineType) bool {
	r, ok := ranges[t]
	return ok && r.Contains(n)
}

func usedNumbers(machines domain.MachineList) map[int]struct{} {
	used := make(map[int]struct{}, len(machines))
	for _, m := range machines {
		used[m.MachineNumber] = struct{}{}
	}
	return used
}

func countType(machines domain.MachineList, t domain.MachineType) int {
	n := 0
	for _, m := range machines {
		if m.Type == t {
			n++
		}
	}
	return n
}

// NextAvailableNumber returns the lowest free number in the type's range.
// When the range is full it falls back to count(type)+floor, stepping past
// any number already held so the result is still unique.
func NextAvailableNumber(t domain.MachineType, machines domain.MachineList) (int, error) {
	r, err := RangeFor(t)
	if err != nil {
		return 0, err
	}
	used := usedNumbers(machines)
	for n := r.Min; n <= r.Max; n++ {
		if _, taken := used[n]; !taken {
			return n, nil
		}
	}
	n := countType(machines, t) + r.Min
	for {
		if _, taken := used[n]; !taken {
			return n, nil
		}
		n++
	}
}

// ValidateNumber checks a number for machine m against the rest of the list.
// Privileged callers may go outside the range but never duplicate.
func ValidateNumber(machines domain.MachineList, m domain.Machine, privileged bool) error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if !privileged && !IsInRange(m.MachineNumber, m.Type) {
		r := ranges[m.Type]
		return fmt.Errorf("%w: %s %d not in %d-%d", ErrOutOfRange, m.Type, m.MachineNumber, r.Min, r.Max)
	}
	if m.MachineNumber <= 0 {
		return fmt.Errorf("%w: %d", ErrOutOfRange, m.MachineNumber)
	}
	for _, other := range machines {
		if other.ID != m.ID && other.MachineNumber == m.MachineNumber {
			return fmt.Errorf("%w: %d held by %s", ErrDuplicateNumber, m.MachineNumber, other.ID)
		}
	}
	return nil
}

// CheckUnique reports the first duplicated number in the list.
func CheckUnique(machines domain.MachineList) error {
	seen := make(map[int]string, len(machines))
	for _, m := range machines {
		if prev, dup := seen[m.MachineNumber]; dup {
			return fmt.Errorf("%w: %d held by %s and %s", ErrDuplicateNumber, m.MachineNumber, prev, m.ID)
		}
		seen[m.MachineNumber] = m.ID
	}
	return nil
}
