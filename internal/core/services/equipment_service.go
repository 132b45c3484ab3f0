package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/spincycle/backend/internal/core/allocator"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

const maxClonesPerRequest = 50

type EquipmentServiceConfig struct {
	Store        ports.CustomerStore
	TimelineRepo ports.TimelineRepository
	Logger       *logger.Logger
	Locks        *KeyLocker
	NewID        func() string
}

type equipmentService struct {
	customerAccess
	newID func() string
}

func NewEquipmentService(cfg EquipmentServiceConfig) ports.EquipmentService {
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &equipmentService{
		customerAccess: newCustomerAccess(cfg.Store, cfg.TimelineRepo, cfg.Logger, cfg.Locks),
		newID:          newID,
	}
}

func cleanCoins(coins []string) []string {
	if coins == nil {
		return nil
	}
	out := make([]string, 0, len(coins))
	for _, c := range coins {
		if c = foldKey(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func validPricing(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

func (s *equipmentService) AddMachine(ctx context.Context, id string, input ports.AddMachineInput) (*domain.Machine, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", allocator.ErrUnknownType, input.Type)
	}
	if !validPricing(input.Pricing) {
		return nil, fmt.Errorf("%w: pricing must be a non-negative number", ErrMachineInvalidInput)
	}
	machine := domain.Machine{
		ID:            s.newID(),
		Type:          input.Type,
		Make:          cleanText(input.Make),
		Model:         cleanText(input.Model),
		SerialNumber:  strings.TrimSpace(input.SerialNumber),
		CoinsAccepted: cleanCoins(input.CoinsAccepted),
		Pricing:       input.Pricing,
	}

	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		if input.MachineNumber == nil {
			n, err := allocator.NextAvailableNumber(machine.Type, c.Machines)
			if err != nil {
				return domain.CustomerPatch{}, err
			}
			machine.MachineNumber = n
		} else {
			machine.MachineNumber = *input.MachineNumber
			if err := allocator.ValidateNumber(c.Machines, machine, input.Privileged); err != nil {
				return domain.CustomerPatch{}, err
			}
		}
		machines := append(c.Machines.Clone(), machine)
		return domain.CustomerPatch{Machines: &machines}, nil
	})
	if err != nil {
		return nil, err
	}
	if !allocator.IsInRange(machine.MachineNumber, machine.Type) {
		s.logger.Warnw("machine_number_outside_range", "id", id, "machine_id", machine.ID, "number", machine.MachineNumber)
	}
	s.record(ctx, id, domain.EventTypeMachineAdded,
		fmt.Sprintf("%s #%d added", machine.Type, machine.MachineNumber),
		domain.JSONB{"machine_id": machine.ID, "machine_number": machine.MachineNumber})
	return &machine, nil
}

// UpdateMachine edits descriptive fields. Numbers only change through
// RenumberMachine so the swap rules always apply.
func (s *equipmentService) UpdateMachine(ctx context.Context, id, machineID string, input ports.UpdateMachineInput) (*domain.Machine, error) {
	if input.Pricing != nil && !validPricing(*input.Pricing) {
		return nil, fmt.Errorf("%w: pricing must be a non-negative number", ErrMachineInvalidInput)
	}
	var updated domain.Machine
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		idx := c.Machines.Index(machineID)
		if idx < 0 {
			return domain.CustomerPatch{}, fmt.Errorf("%w: %s", allocator.ErrMachineNotFound, machineID)
		}
		machines := c.Machines.Clone()
		m := &machines[idx]
		if input.Make != nil {
			m.Make = cleanText(*input.Make)
		}
		if input.Model != nil {
			m.Model = cleanText(*input.Model)
		}
		if input.SerialNumber != nil {
			m.SerialNumber = strings.TrimSpace(*input.SerialNumber)
		}
		if input.CoinsAccepted != nil {
			m.CoinsAccepted = cleanCoins(*input.CoinsAccepted)
		}
		if input.Pricing != nil {
			m.Pricing = *input.Pricing
		}
		updated = m.Clone()
		return domain.CustomerPatch{Machines: &machines}, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *equipmentService) RemoveMachine(ctx context.Context, id, machineID string) error {
	var removed domain.Machine
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		idx := c.Machines.Index(machineID)
		if idx < 0 {
			return domain.CustomerPatch{}, fmt.Errorf("%w: %s", allocator.ErrMachineNotFound, machineID)
		}
		removed = c.Machines[idx]
		machines := append(c.Machines[:idx:idx], c.Machines[idx+1:]...)
		return domain.CustomerPatch{Machines: &machines}, nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, id, domain.EventTypeMachineRemoved,
		fmt.Sprintf("%s #%d removed", removed.Type, removed.MachineNumber),
		domain.JSONB{"machine_id": machineID, "machine_number": removed.MachineNumber})
	return nil
}

// RenumberMachine persists a swap as a single machines write, so the two
// machines can never be seen holding the same number.
func (s *equipmentService) RenumberMachine(ctx context.Context, id, machineID string, newNumber int, privileged bool) (*allocator.RenumberResult, error) {
	var result allocator.RenumberResult
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		machines, res, err := allocator.Renumber(c.Machines, machineID, newNumber, privileged)
		if err != nil {
			return domain.CustomerPatch{}, err
		}
		result = res
		if res.OldNumber == res.NewNumber {
			return domain.CustomerPatch{}, nil
		}
		return domain.CustomerPatch{Machines: &machines}, nil
	})
	if err != nil {
		return nil, err
	}
	if result.OldNumber != result.NewNumber {
		meta := domain.JSONB{
			"machine_id": machineID,
			"from":       result.OldNumber,
			"to":         result.NewNumber,
			"privileged": privileged,
		}
		msg := fmt.Sprintf("Machine #%d renumbered to #%d", result.OldNumber, result.NewNumber)
		if result.Swapped() {
			meta["swapped_with_id"] = result.SwappedWithID
			msg = fmt.Sprintf("Machines #%d and #%d swapped numbers", result.OldNumber, result.NewNumber)
		}
		s.record(ctx, id, domain.EventTypeMachineRenumber, msg, meta)
	}
	return &result, nil
}

func (s *equipmentService) CloneMachine(ctx context.Context, id, machineID string, count int) (domain.MachineList, error) {
	if count < 1 || count > maxClonesPerRequest {
		return nil, fmt.Errorf("%w: %d not in 1-%d", ErrCloneCount, count, maxClonesPerRequest)
	}
	var clones domain.MachineList
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		idx := c.Machines.Index(machineID)
		if idx < 0 {
			return domain.CustomerPatch{}, fmt.Errorf("%w: %s", allocator.ErrMachineNotFound, machineID)
		}
		var err error
		clones, err = allocator.Clone(c.Machines[idx], count, c.Machines, s.newID)
		if err != nil {
			return domain.CustomerPatch{}, err
		}
		if len(clones) == 0 {
			return domain.CustomerPatch{}, nil
		}
		machines := append(c.Machines.Clone(), clones...)
		return domain.CustomerPatch{Machines: &machines}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(clones) < count {
		s.logger.Infow("machine_clone_range_full", "id", id, "requested", count, "created", len(clones))
	}
	if len(clones) > 0 {
		s.record(ctx, id, domain.EventTypeMachinesCloned,
			fmt.Sprintf("%d machines cloned", len(clones)),
			domain.JSONB{"template_id": machineID, "requested": count, "created": len(clones)})
	}
	return clones, nil
}

func (s *equipmentService) NextMachineNumber(ctx context.Context, id string, machineType domain.MachineType) (int, error) {
	customer, err := s.lookup(ctx, id)
	if err != nil {
		return 0, err
	}
	return allocator.NextAvailableNumber(machineType, customer.Machines)
}
