package allocator

import (
	"github.com/spincycle/backend/internal/domain"
)

// Clone makes up to k copies of template, each with the next free number in
// range. Serial numbers are cleared and ids come from newID. Unlike
// NextAvailableNumber there is no overflow: cloning stops when the range is
// full, so the result may hold fewer than k machines.
func Clone(template domain.Machine, k int, existing domain.MachineList, newID func() string) (domain.MachineList, error) {
	r, err := RangeFor(template.Type)
	if err != nil {
		return nil, err
	}
	used := usedNumbers(existing)
	clones := make(domain.MachineList, 0, max(k, 0))

	next := r.Min
	for len(clones) < k {
		for next <= r.Max {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		if next > r.Max {
			break
		}
		m := template.Clone()
		m.ID = newID()
		m.SerialNumber = ""
		m.MachineNumber = next
		used[next] = struct{}{}
		clones = append(clones, m)
	}
	return clones, nil
}
