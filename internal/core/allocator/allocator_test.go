package allocator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/domain"
)

func washer(id string, n int) domain.Machine {
	return domain.Machine{ID: id, MachineNumber: n, Type: domain.MachineTypeWasher, Make: "Speed Queen", SerialNumber: "SN-" + id}
}

func dryer(id string, n int) domain.Machine {
	return domain.Machine{ID: id, MachineNumber: n, Type: domain.MachineTypeDryer, Make: "Dexter"}
}

// washersExcept fills the washer range with every number but the skipped ones.
func washersExcept(skip ...int) domain.MachineList {
	skipped := map[int]bool{}
	for _, n := range skip {
		skipped[n] = true
	}
	var list domain.MachineList
	for n := 1; n <= 99; n++ {
		if !skipped[n] {
			list = append(list, washer(fmt.Sprintf("w%d", n), n))
		}
	}
	return list
}

func seq() func() string {
	i := 0
	return func() string {
		i++
		return fmt.Sprintf("new-%d", i)
	}
}

func TestIsInRange(t *testing.T) {
	tests := []struct {
		n    int
		typ  domain.MachineType
		want bool
	}{
		{1, domain.MachineTypeWasher, true},
		{99, domain.MachineTypeWasher, true},
		{0, domain.MachineTypeWasher, false},
		{100, domain.MachineTypeWasher, false},
		{101, domain.MachineTypeWasher, false},
		{101, domain.MachineTypeDryer, true},
		{199, domain.MachineTypeDryer, true},
		{100, domain.MachineTypeDryer, false},
		{200, domain.MachineTypeDryer, false},
		{5, domain.MachineType("folder"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsInRange(tt.n, tt.typ), "%s %d", tt.typ, tt.n)
	}
}

func TestNextAvailableNumber(t *testing.T) {
	n, err := NextAvailableNumber(domain.MachineTypeWasher, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = NextAvailableNumber(domain.MachineTypeDryer, domain.MachineList{dryer("d1", 101), dryer("d2", 103), washer("w1", 1)})
	require.NoError(t, err)
	assert.Equal(t, 102, n)

	_, err = NextAvailableNumber(domain.MachineType("folder"), nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNextAvailableNumber_FindsTheOnlyGap(t *testing.T) {
	n, err := NextAvailableNumber(domain.MachineTypeWasher, washersExcept(57))
	require.NoError(t, err)
	assert.Equal(t, 57, n)
}

func TestNextAvailableNumber_OverflowWhenFull(t *testing.T) {
	full := washersExcept()
	n, err := NextAvailableNumber(domain.MachineTypeWasher, full)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.False(t, IsInRange(n, domain.MachineTypeWasher))

	// an overridden machine already sits on the fallback number
	full = append(full, washer("w100", 100))
	n, err = NextAvailableNumber(domain.MachineTypeWasher, full)
	require.NoError(t, err)
	assert.Equal(t, 101, n)
}

func TestRenumber_Swap(t *testing.T) {
	machines := washersExcept(57, 12)
	machines = append(machines, washer("target", 12), washer("occupant", 57))

	out, res, err := Renumber(machines, "target", 57, false)
	require.NoError(t, err)
	assert.True(t, res.Swapped())
	assert.Equal(t, "occupant", res.SwappedWithID)
	assert.Equal(t, 12, res.OldNumber)

	assert.Equal(t, 57, out[out.Index("target")].MachineNumber)
	assert.Equal(t, 12, out[out.Index("occupant")].MachineNumber)
	assert.NoError(t, CheckUnique(out))

	// input untouched
	assert.Equal(t, 12, machines[machines.Index("target")].MachineNumber)
}

func TestRenumber_FreeNumber(t *testing.T) {
	machines := domain.MachineList{washer("a", 1), washer("b", 2)}
	out, res, err := Renumber(machines, "a", 40, false)
	require.NoError(t, err)
	assert.False(t, res.Swapped())
	assert.Equal(t, 40, out[0].MachineNumber)
	assert.Equal(t, 2, out[1].MachineNumber)
}

func TestRenumber_SameNumberIsNoop(t *testing.T) {
	machines := domain.MachineList{washer("a", 1)}
	out, res, err := Renumber(machines, "a", 1, false)
	require.NoError(t, err)
	assert.False(t, res.Swapped())
	assert.Equal(t, machines, out)
}

func TestRenumber_OutOfRange(t *testing.T) {
	machines := domain.MachineList{washer("a", 1), dryer("d", 101)}

	out, _, err := Renumber(machines, "a", 150, false)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Nil(t, out)
	assert.Equal(t, 1, machines[0].MachineNumber)

	_, _, err = Renumber(machines, "d", 0, true)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, _, err = Renumber(machines, "missing", 3, false)
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestRenumber_PrivilegedOverride(t *testing.T) {
	machines := domain.MachineList{washer("a", 1), dryer("d", 101)}

	out, res, err := Renumber(machines, "a", 250, true)
	require.NoError(t, err)
	assert.False(t, res.Swapped())
	assert.Equal(t, 250, out[0].MachineNumber)

	// privileged swap across types still keeps numbers unique
	out, res, err = Renumber(out, "a", 101, true)
	require.NoError(t, err)
	assert.Equal(t, "d", res.SwappedWithID)
	assert.Equal(t, 250, out[1].MachineNumber)
	assert.NoError(t, CheckUnique(out))
}

func TestClone(t *testing.T) {
	template := washer("tpl", 1)
	template.CoinsAccepted = []string{"quarter"}
	template.Pricing = 3.5
	existing := domain.MachineList{template, washer("b", 3)}

	clones, err := Clone(template, 3, existing, seq())
	require.NoError(t, err)
	require.Len(t, clones, 3)
	assert.Equal(t, []int{2, 4, 5}, numbers(clones))
	for i, c := range clones {
		assert.Equal(t, fmt.Sprintf("new-%d", i+1), c.ID)
		assert.Empty(t, c.SerialNumber)
		assert.Equal(t, "Speed Queen", c.Make)
		assert.Equal(t, 3.5, c.Pricing)
		assert.Equal(t, []string{"quarter"}, c.CoinsAccepted)
	}

	clones[0].CoinsAccepted[0] = "token"
	assert.Equal(t, "quarter", template.CoinsAccepted[0])
}

func TestClone_StopsWhenRangeFull(t *testing.T) {
	existing := washersExcept(10, 20)
	clones, err := Clone(existing[0], 5, existing, seq())
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, numbers(clones))

	clones, err = Clone(existing[0], 5, washersExcept(), seq())
	require.NoError(t, err)
	assert.Empty(t, clones)

	clones, err = Clone(existing[0], 0, nil, seq())
	require.NoError(t, err)
	assert.Empty(t, clones)
}

func TestValidateNumber(t *testing.T) {
	machines := domain.MachineList{washer("a", 1), dryer("d", 101)}

	assert.NoError(t, ValidateNumber(machines, washer("new", 2), false))
	assert.NoError(t, ValidateNumber(machines, washer("a", 1), false))
	assert.ErrorIs(t, ValidateNumber(machines, washer("new", 1), false), ErrDuplicateNumber)
	assert.ErrorIs(t, ValidateNumber(machines, washer("new", 120), false), ErrOutOfRange)
	assert.NoError(t, ValidateNumber(machines, washer("new", 120), true))
	assert.ErrorIs(t, ValidateNumber(machines, washer("new", 101), true), ErrDuplicateNumber)
	assert.ErrorIs(t, ValidateNumber(machines, domain.Machine{ID: "x", MachineNumber: 5, Type: "folder"}, true), ErrUnknownType)
}

func TestUniquenessAcrossOperations(t *testing.T) {
	var machines domain.MachineList
	ids := seq()
	for i := 0; i < 5; i++ {
		n, err := NextAvailableNumber(domain.MachineTypeWasher, machines)
		require.NoError(t, err)
		machines = append(machines, washer(fmt.Sprintf("w%d", i), n))
	}
	clones, err := Clone(machines[0], 4, machines, ids)
	require.NoError(t, err)
	machines = append(machines, clones...)

	steps := []struct {
		id string
		n  int
	}{{"w0", 3}, {"w4", 1}, {"new-2", 2}, {"w1", 60}, {"new-4", 60}}
	for _, s := range steps {
		machines, _, err = Renumber(machines, s.id, s.n, false)
		require.NoError(t, err)
		require.NoError(t, CheckUnique(machines))
	}
	assert.Len(t, machines, 9)
}

func TestCheckUnique(t *testing.T) {
	assert.NoError(t, CheckUnique(nil))
	err := CheckUnique(domain.MachineList{washer("a", 4), dryer("d", 101), washer("b", 4)})
	assert.ErrorIs(t, err, ErrDuplicateNumber)
}

func numbers(list domain.MachineList) []int {
	out := make([]int, len(list))
	for i, m := range list {
		out[i] = m.MachineNumber
	}
	return out
}
