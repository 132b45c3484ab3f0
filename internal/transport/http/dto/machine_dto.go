package dto

import (
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

type AddMachineRequest struct {
	Type          string   `json:"type"`
	Make          string   `json:"make"`
	Model         string   `json:"model"`
	SerialNumber  string   `json:"serial_number"`
	CoinsAccepted []string `json:"coins_accepted"`
	Pricing       float64  `json:"pricing"`
	MachineNumber *int     `json:"machine_number"`
}

func (r *AddMachineRequest) Validate() []string {
	var errors []string
	if !domain.MachineType(r.Type).Valid() {
		errors = append(errors, "type must be one of: washer, dryer")
	}
	if r.Pricing < 0 {
		errors = append(errors, "pricing must not be negative")
	}
	if r.MachineNumber != nil && *r.MachineNumber <= 0 {
		errors = append(errors, "machine_number must be positive")
	}
	return errors
}

func (r *AddMachineRequest) ToInput(privileged bool) ports.AddMachineInput {
	return ports.AddMachineInput{
		Type:          domain.MachineType(r.Type),
		Make:          r.Make,
		Model:         r.Model,
		SerialNumber:  r.SerialNumber,
		CoinsAccepted: r.CoinsAccepted,
		Pricing:       r.Pricing,
		MachineNumber: r.MachineNumber,
		Privileged:    privileged,
	}
}

type UpdateMachineRequest struct {
	Make          *string   `json:"make"`
	Model         *string   `json:"model"`
	SerialNumber  *string   `json:"serial_number"`
	CoinsAccepted *[]string `json:"coins_accepted"`
	Pricing       *float64  `json:"pricing"`
}

func (r *UpdateMachineRequest) Validate() []string {
	var errors []string
	if r.Pricing != nil && *r.Pricing < 0 {
		errors = append(errors, "pricing must not be negative")
	}
	return errors
}

func (r *UpdateMachineRequest) ToInput() ports.UpdateMachineInput {
	return ports.UpdateMachineInput{
		Make:          r.Make,
		Model:         r.Model,
		SerialNumber:  r.SerialNumber,
		CoinsAccepted: r.CoinsAccepted,
		Pricing:       r.Pricing,
	}
}

type RenumberRequest struct {
	MachineNumber int `json:"machine_number"`
}

func (r *RenumberRequest) Validate() []string {
	var errors []string
	if r.MachineNumber <= 0 {
		errors = append(errors, "machine_number must be positive")
	}
	return errors
}

type CloneRequest struct {
	Count int `json:"count"`
}

func (r *CloneRequest) Validate() []string {
	var errors []string
	if r.Count <= 0 {
		errors = append(errors, "count must be positive")
	}
	return errors
}
