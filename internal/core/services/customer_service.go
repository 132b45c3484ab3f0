package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/progress"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

type CustomerServiceConfig struct {
	Store        ports.CustomerStore
	TimelineRepo ports.TimelineRepository
	Catalog      *catalog.Catalog
	Logger       *logger.Logger
	Locks        *KeyLocker
	NewID        func() string
}

type customerService struct {
	customerAccess
	catalog *catalog.Catalog
	newID   func() string
}

func NewCustomerService(cfg CustomerServiceConfig) ports.CustomerService {
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &customerService{
		customerAccess: newCustomerAccess(cfg.Store, cfg.TimelineRepo, cfg.Logger, cfg.Locks),
		catalog:        cat,
		newID:          newID,
	}
}

// CreateCustomer waits for the first remote write. When that write fails the
// record stays cached and queued for replay; it is returned together with
// the error.
func (s *customerService) CreateCustomer(ctx context.Context, input ports.CreateCustomerInput) (*domain.Customer, error) {
	name := cleanText(input.BusinessName)
	if name == "" {
		return nil, fmt.Errorf("%w: business_name is required", ErrCustomerInvalidInput)
	}
	email := cleanEmail(input.ContactEmail)
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: contact_email is malformed", ErrCustomerInvalidInput)
	}

	id := s.newID()
	statuses := domain.TaskStatusMap{}
	patch := domain.CustomerPatch{
		BusinessName:   &name,
		ContactName:    domain.Ptr(cleanText(input.ContactName)),
		ContactEmail:   &email,
		ContactPhone:   domain.Ptr(strings.TrimSpace(input.ContactPhone)),
		Address:        domain.Ptr(cleanText(input.Address)),
		Status:         domain.Ptr(domain.CustomerStatusOnboarding),
		PaymentStatus:  domain.Ptr(domain.PaymentStatusUnpaid),
		CurrentStageID: domain.Ptr(progress.CurrentStage(s.catalog, statuses).ID),
		TaskStatuses:   &statuses,
		TaskMetadata:   &domain.TaskMetadataMap{},
	}

	unlock := s.locks.Lock(customerKey(id))
	defer unlock()

	customer, err := s.store.MutateAndWait(ctx, id, patch)
	if err != nil {
		s.logger.Errorw("customer_create_write_failed", "id", id, "error", err)
		if customer == nil {
			return nil, err
		}
		return customer, err
	}
	s.logger.Infow("customer_created", "id", id, "business_name", name)
	s.record(ctx, id, domain.EventTypeCustomerCreated, "Customer created", domain.JSONB{
		"business_name": name,
		"actor":         input.Actor,
	})
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.lookup(ctx, id)
}

func (s *customerService) GetCustomers(ctx context.Context, filter ports.CustomerFilter) ([]domain.Customer, error) {
	query := foldKey(filter.Query)
	all := s.store.List()
	out := make([]domain.Customer, 0, len(all))
	for _, c := range all {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(foldKey(c.BusinessName), query) &&
			!strings.Contains(foldKey(c.ContactName), query) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, input ports.UpdateCustomerInput) (*domain.Customer, error) {
	patch := domain.CustomerPatch{
		BusinessName: cleanTextPtr(input.BusinessName),
		ContactName:  cleanTextPtr(input.ContactName),
		Address:      cleanTextPtr(input.Address),
		Status:       input.Status,
	}
	if patch.BusinessName != nil && *patch.BusinessName == "" {
		return nil, fmt.Errorf("%w: business_name cannot be empty", ErrCustomerInvalidInput)
	}
	if input.ContactEmail != nil {
		email := cleanEmail(*input.ContactEmail)
		if email != "" && !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: contact_email is malformed", ErrCustomerInvalidInput)
		}
		patch.ContactEmail = &email
	}
	if input.ContactPhone != nil {
		patch.ContactPhone = domain.Ptr(strings.TrimSpace(*input.ContactPhone))
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrCustomerInvalidInput, *input.Status)
	}

	customer, err := s.update(ctx, id, func(*domain.Customer) (domain.CustomerPatch, error) {
		return patch, nil
	})
	if err != nil {
		return nil, err
	}
	meta := domain.JSONB{"actor": input.Actor, "fields": len(patch.Columns())}
	if input.Status != nil {
		meta["status"] = string(*input.Status)
	}
	s.record(ctx, id, domain.EventTypeCustomerUpdated, "Customer details updated", meta)
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	unlock := s.locks.Lock(customerKey(id))
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, syncengine.ErrNotFound) || errors.Is(err, syncengine.ErrInvalidID) {
			return fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
		}
		s.logger.Errorw("customer_delete_failed", "id", id, "error", err)
		return err
	}
	s.record(ctx, id, domain.EventTypeCustomerDeleted, "Customer deleted", nil)
	return nil
}

// ReloadCustomer replaces the cached copy with the remote one. Unsent local
// edits survive the reload.
func (s *customerService) ReloadCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	unlock := s.locks.Lock(customerKey(id))
	defer unlock()

	customer, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, syncengine.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetProgress(ctx context.Context, id string, customerVisibleOnly bool) (*progress.Report, error) {
	customer, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	report := progress.Build(s.catalog, customer.TaskStatuses, customer.TaskMetadata, progress.ReportOptions{
		CustomerVisibleOnly: customerVisibleOnly,
	})
	return &report, nil
}

// UpdateTaskStatus writes the status and its metadata in one patch, moves the
// current stage pointer and marks the customer live once every task is done.
func (s *customerService) UpdateTaskStatus(ctx context.Context, input ports.UpdateTaskStatusInput) (*domain.Customer, error) {
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrTaskInvalidStatus, input.Status)
	}
	if !s.catalog.HasTask(input.TaskID) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, input.TaskID)
	}

	var previousStage string
	var percent int
	customer, err := s.update(ctx, input.CustomerID, func(c *domain.Customer) (domain.CustomerPatch, error) {
		statuses := c.TaskStatuses.Clone()
		if statuses == nil {
			statuses = domain.TaskStatusMap{}
		}
		statuses[input.TaskID] = input.Status

		metadata := c.TaskMetadata.Clone()
		if metadata == nil {
			metadata = domain.TaskMetadataMap{}
		}
		metadata[input.TaskID] = domain.TaskMeta{UpdatedBy: input.Actor, UpdatedAt: s.store.Now()}

		previousStage = c.CurrentStageID
		percent = progress.OverallPercent(s.catalog, statuses)
		patch := domain.CustomerPatch{
			TaskStatuses:   &statuses,
			TaskMetadata:   &metadata,
			CurrentStageID: domain.Ptr(progress.CurrentStage(s.catalog, statuses).ID),
		}
		if percent == 100 && c.Status == domain.CustomerStatusOnboarding {
			patch.Status = domain.Ptr(domain.CustomerStatusLive)
		}
		return patch, nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, customer.ID, domain.EventTypeTaskStatus,
		fmt.Sprintf("Task %s set to %s", input.TaskID, input.Status),
		domain.JSONB{"task_id": input.TaskID, "status": string(input.Status), "actor": input.Actor, "overall_percent": percent})
	if customer.CurrentStageID != previousStage {
		s.record(ctx, customer.ID, domain.EventTypeStageAdvanced,
			fmt.Sprintf("Current stage is now %s", customer.CurrentStageID),
			domain.JSONB{"from": previousStage, "to": customer.CurrentStageID})
	}
	return customer, nil
}

func (s *customerService) AddNote(ctx context.Context, id string, input ports.AddNoteInput) (*domain.Note, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: note body is required", ErrCustomerInvalidInput)
	}
	note := domain.Note{
		ID:        s.newID(),
		Author:    cleanText(input.Author),
		Body:      body,
		CreatedAt: s.store.Now(),
	}
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		notes := append(c.Notes.Clone(), note)
		return domain.CustomerPatch{Notes: &notes}, nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *customerService) RemoveNote(ctx context.Context, id, noteID string) error {
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		for i, n := range c.Notes {
			if n.ID == noteID {
				notes := append(c.Notes[:i:i], c.Notes[i+1:]...)
				return domain.CustomerPatch{Notes: &notes}, nil
			}
		}
		return domain.CustomerPatch{}, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	})
	return err
}

func (s *customerService) AddPaymentLink(ctx context.Context, id string, input ports.AddPaymentLinkInput) (*domain.PaymentLink, error) {
	raw := strings.TrimSpace(input.URL)
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: payment link url must be an absolute http(s) url", ErrCustomerInvalidInput)
	}
	link := domain.PaymentLink{
		ID:        s.newID(),
		Label:     cleanText(input.Label),
		URL:       raw,
		CreatedAt: s.store.Now(),
	}
	if link.Label == "" {
		link.Label = u.Host
	}
	_, err = s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		links := append(c.PaymentLinks.Clone(), link)
		return domain.CustomerPatch{PaymentLinks: &links}, nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *customerService) RemovePaymentLink(ctx context.Context, id, linkID string) error {
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		for i, l := range c.PaymentLinks {
			if l.ID == linkID {
				links := append(c.PaymentLinks[:i:i], c.PaymentLinks[i+1:]...)
				return domain.CustomerPatch{PaymentLinks: &links}, nil
			}
		}
		return domain.CustomerPatch{}, fmt.Errorf("%w: %s", ErrPaymentLinkNotFound, linkID)
	})
	return err
}

func (s *customerService) AddPaymentProcessor(ctx context.Context, id string, input ports.AddPaymentProcessorInput) (*domain.PaymentProcessor, error) {
	name := cleanText(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: processor name is required", ErrCustomerInvalidInput)
	}
	processor := domain.PaymentProcessor{
		ID:         s.newID(),
		Name:       name,
		MerchantID: strings.TrimSpace(input.MerchantID),
		Status:     strings.TrimSpace(input.Status),
		CreatedAt:  s.store.Now(),
	}
	if processor.Status == "" {
		processor.Status = "pending"
	}
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		processors := append(c.PaymentProcessors.Clone(), processor)
		return domain.CustomerPatch{PaymentProcessors: &processors}, nil
	})
	if err != nil {
		return nil, err
	}
	return &processor, nil
}

func (s *customerService) RemovePaymentProcessor(ctx context.Context, id, processorID string) error {
	_, err := s.update(ctx, id, func(c *domain.Customer) (domain.CustomerPatch, error) {
		for i, p := range c.PaymentProcessors {
			if p.ID == processorID {
				processors := append(c.PaymentProcessors[:i:i], c.PaymentProcessors[i+1:]...)
				return domain.CustomerPatch{PaymentProcessors: &processors}, nil
			}
		}
		return domain.CustomerPatch{}, fmt.Errorf("%w: %s", ErrPaymentProcessorNotFound, processorID)
	})
	return err
}

func (s *customerService) GetTimeline(ctx context.Context, id string, limit int) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.GetByResource(ctx, domain.ResourceTypeCustomer, id, limit)
}
