package dto

import (
	"net/mail"
	"strings"
	"time"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/progress"
	"github.com/spincycle/backend/internal/domain"
)

type CreateCustomerRequest struct {
	BusinessName string `json:"business_name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

func (r *CreateCustomerRequest) Validate() []string {
	var errors []string

	if strings.TrimSpace(r.BusinessName) == "" {
		errors = append(errors, "business_name is required")
	}
	if r.ContactEmail != "" {
		if _, err := mail.ParseAddress(r.ContactEmail); err != nil {
			errors = append(errors, "contact_email is not a valid email address")
		}
	}

	return errors
}

func (r *CreateCustomerRequest) ToInput(actor string) ports.CreateCustomerInput {
	return ports.CreateCustomerInput{
		BusinessName: r.BusinessName,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
		Actor:        actor,
	}
}

type UpdateCustomerRequest struct {
	BusinessName *string `json:"business_name"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Address      *string `json:"address"`
	Status       *string `json:"status"`
}

func (r *UpdateCustomerRequest) Validate() []string {
	var errors []string

	if r.BusinessName != nil && strings.TrimSpace(*r.BusinessName) == "" {
		errors = append(errors, "business_name cannot be empty")
	}
	if r.ContactEmail != nil && *r.ContactEmail != "" {
		if _, err := mail.ParseAddress(*r.ContactEmail); err != nil {
			errors = append(errors, "contact_email is not a valid email address")
		}
	}
	if r.Status != nil && !domain.CustomerStatus(*r.Status).Valid() {
		errors = append(errors, "status must be one of: onboarding, on_hold, live, churned")
	}

	return errors
}

func (r *UpdateCustomerRequest) ToInput(actor string) ports.UpdateCustomerInput {
	input := ports.UpdateCustomerInput{
		BusinessName: r.BusinessName,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
		Actor:        actor,
	}
	if r.Status != nil {
		status := domain.CustomerStatus(*r.Status)
		input.Status = &status
	}
	return input
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateTaskStatusRequest) Validate() []string {
	var errors []string
	if !domain.TaskStatus(r.Status).Valid() {
		errors = append(errors, "status must be one of: not_started, in_progress, complete")
	}
	return errors
}

type NoteRequest struct {
	Body string `json:"body"`
}

func (r *NoteRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.Body) == "" {
		errors = append(errors, "body is required")
	}
	return errors
}

type PaymentLinkRequest struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

func (r *PaymentLinkRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.URL) == "" {
		errors = append(errors, "url is required")
	}
	return errors
}

type PaymentProcessorRequest struct {
	Name       string `json:"name"`
	MerchantID string `json:"merchant_id"`
	Status     string `json:"status"`
}

func (r *PaymentProcessorRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, "name is required")
	}
	return errors
}

// CustomerSummary is the list view of a customer.
type CustomerSummary struct {
	ID             string                `json:"id"`
	BusinessName   string                `json:"business_name"`
	ContactName    string                `json:"contact_name"`
	Status         domain.CustomerStatus `json:"status"`
	CurrentStageID string                `json:"current_stage_id"`
	OverallPercent int                   `json:"overall_percent"`
	PaymentStatus  domain.PaymentStatus  `json:"payment_status"`
	Machines       int                   `json:"machines"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func CustomerToSummary(cat *catalog.Catalog, c *domain.Customer) CustomerSummary {
	return CustomerSummary{
		ID:             c.ID,
		BusinessName:   c.BusinessName,
		ContactName:    c.ContactName,
		Status:         c.Status,
		CurrentStageID: c.CurrentStageID,
		OverallPercent: progress.OverallPercent(cat, c.TaskStatuses),
		PaymentStatus:  c.PaymentStatus,
		Machines:       len(c.Machines),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func CustomersToSummary(cat *catalog.Catalog, customers []domain.Customer) []CustomerSummary {
	out := make([]CustomerSummary, len(customers))
	for i := range customers {
		out[i] = CustomerToSummary(cat, &customers[i])
	}
	return out
}

// CustomerAccepted is returned when a customer was cached but its first
// database write failed and is queued for replay.
type CustomerAccepted struct {
	Customer *domain.Customer `json:"customer"`
	Warning  string           `json:"warning"`
}
