package domain

import "time"

// CustomerPatch is a top-level partial update of a Customer. Nil fields are
// left untouched. Collections and task maps are full replacements, never
// deltas: a non-nil pointer to an empty list clears the list.
type CustomerPatch struct {
	BusinessName   *string         `json:"business_name,omitempty"`
	ContactName    *string         `json:"contact_name,omitempty"`
	ContactEmail   *string         `json:"contact_email,omitempty"`
	ContactPhone   *string         `json:"contact_phone,omitempty"`
	Address        *string         `json:"address,omitempty"`
	Status         *CustomerStatus `json:"status,omitempty"`
	CurrentStageID *string         `json:"current_stage_id,omitempty"`

	TaskStatuses *TaskStatusMap   `json:"task_statuses,omitempty"`
	TaskMetadata *TaskMetadataMap `json:"task_metadata,omitempty"`

	Machines          *MachineList          `json:"machines,omitempty"`
	SalesReps         *SalesRepList         `json:"sales_reps,omitempty"`
	PaymentLinks      *PaymentLinkList      `json:"payment_links,omitempty"`
	PaymentProcessors *PaymentProcessorList `json:"payment_processors,omitempty"`
	Notes             *NoteList             `json:"notes,omitempty"`

	NonRecurringRevenue  *float64       `json:"non_recurring_revenue,omitempty"`
	MonthlyRecurringFee  *float64       `json:"monthly_recurring_fee,omitempty"`
	OtherFees            *float64       `json:"other_fees,omitempty"`
	DealAmount           *float64       `json:"deal_amount,omitempty"`
	Cogs                 *float64       `json:"cogs,omitempty"`
	CommissionRate       *float64       `json:"commission_rate,omitempty"`
	PaymentTermMonths    *int           `json:"payment_term_months,omitempty"`
	PaidToDateAmount     *float64       `json:"paid_to_date_amount,omitempty"`
	CommissionPaidAmount *float64       `json:"commission_paid_amount,omitempty"`
	PaymentStatus        *PaymentStatus `json:"payment_status,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func Ptr[T any](v T) *T {
	return &v
}

func (p CustomerPatch) IsEmpty() bool {
	return p == (CustomerPatch{})
}

// Clone deep-copies the collections so the patch no longer shares slices or
// maps with the caller.
func (p CustomerPatch) Clone() CustomerPatch {
	out := p
	if p.TaskStatuses != nil {
		out.TaskStatuses = Ptr(p.TaskStatuses.Clone())
	}
	if p.TaskMetadata != nil {
		out.TaskMetadata = Ptr(p.TaskMetadata.Clone())
	}
	if p.Machines != nil {
		out.Machines = Ptr(p.Machines.Clone())
	}
	if p.SalesReps != nil {
		out.SalesReps = Ptr(p.SalesReps.Clone())
	}
	if p.PaymentLinks != nil {
		out.PaymentLinks = Ptr(p.PaymentLinks.Clone())
	}
	if p.PaymentProcessors != nil {
		out.PaymentProcessors = Ptr(p.PaymentProcessors.Clone())
	}
	if p.Notes != nil {
		out.Notes = Ptr(p.Notes.Clone())
	}
	return out
}

// Merge folds a later patch on top of p. Fields set in later win.
func (p CustomerPatch) Merge(later CustomerPatch) CustomerPatch {
	out := p
	mergeField(&out.BusinessName, later.BusinessName)
	mergeField(&out.ContactName, later.ContactName)
	mergeField(&out.ContactEmail, later.ContactEmail)
	mergeField(&out.ContactPhone, later.ContactPhone)
	mergeField(&out.Address, later.Address)
	mergeField(&out.Status, later.Status)
	mergeField(&out.CurrentStageID, later.CurrentStageID)
	mergeField(&out.TaskStatuses, later.TaskStatuses)
	mergeField(&out.TaskMetadata, later.TaskMetadata)
	mergeField(&out.Machines, later.Machines)
	mergeField(&out.SalesReps, later.SalesReps)
	mergeField(&out.PaymentLinks, later.PaymentLinks)
	mergeField(&out.PaymentProcessors, later.PaymentProcessors)
	mergeField(&out.Notes, later.Notes)
	mergeField(&out.NonRecurringRevenue, later.NonRecurringRevenue)
	mergeField(&out.MonthlyRecurringFee, later.MonthlyRecurringFee)
	mergeField(&out.OtherFees, later.OtherFees)
	mergeField(&out.DealAmount, later.DealAmount)
	mergeField(&out.Cogs, later.Cogs)
	mergeField(&out.CommissionRate, later.CommissionRate)
	mergeField(&out.PaymentTermMonths, later.PaymentTermMonths)
	mergeField(&out.PaidToDateAmount, later.PaidToDateAmount)
	mergeField(&out.CommissionPaidAmount, later.CommissionPaidAmount)
	mergeField(&out.PaymentStatus, later.PaymentStatus)
	mergeField(&out.UpdatedAt, later.UpdatedAt)
	return out
}

func mergeField[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Without returns p with every field that other sets cleared.
func (p CustomerPatch) Without(other CustomerPatch) CustomerPatch {
	out := p
	clearField(&out.BusinessName, other.BusinessName)
	clearField(&out.ContactName, other.ContactName)
	clearField(&out.ContactEmail, other.ContactEmail)
	clearField(&out.ContactPhone, other.ContactPhone)
	clearField(&out.Address, other.Address)
	clearField(&out.Status, other.Status)
	clearField(&out.CurrentStageID, other.CurrentStageID)
	clearField(&out.TaskStatuses, other.TaskStatuses)
	clearField(&out.TaskMetadata, other.TaskMetadata)
	clearField(&out.Machines, other.Machines)
	clearField(&out.SalesReps, other.SalesReps)
	clearField(&out.PaymentLinks, other.PaymentLinks)
	clearField(&out.PaymentProcessors, other.PaymentProcessors)
	clearField(&out.Notes, other.Notes)
	clearField(&out.NonRecurringRevenue, other.NonRecurringRevenue)
	clearField(&out.MonthlyRecurringFee, other.MonthlyRecurringFee)
	clearField(&out.OtherFees, other.OtherFees)
	clearField(&out.DealAmount, other.DealAmount)
	clearField(&out.Cogs, other.Cogs)
	clearField(&out.CommissionRate, other.CommissionRate)
	clearField(&out.PaymentTermMonths, other.PaymentTermMonths)
	clearField(&out.PaidToDateAmount, other.PaidToDateAmount)
	clearField(&out.CommissionPaidAmount, other.CommissionPaidAmount)
	clearField(&out.PaymentStatus, other.PaymentStatus)
	clearField(&out.UpdatedAt, other.UpdatedAt)
	return out
}

func clearField[T any](dst **T, src *T) {
	if src != nil {
		*dst = nil
	}
}

// ApplyTo shallow-merges the patch into c. Collections are deep-copied so
// the customer never aliases the caller's slices or maps.
func (p CustomerPatch) ApplyTo(c *Customer) {
	applyField(&c.BusinessName, p.BusinessName)
	applyField(&c.ContactName, p.ContactName)
	applyField(&c.ContactEmail, p.ContactEmail)
	applyField(&c.ContactPhone, p.ContactPhone)
	applyField(&c.Address, p.Address)
	applyField(&c.Status, p.Status)
	applyField(&c.CurrentStageID, p.CurrentStageID)
	if p.TaskStatuses != nil {
		c.TaskStatuses = p.TaskStatuses.Clone()
	}
	if p.TaskMetadata != nil {
		c.TaskMetadata = p.TaskMetadata.Clone()
	}
	if p.Machines != nil {
		c.Machines = p.Machines.Clone()
	}
	if p.SalesReps != nil {
		c.SalesReps = p.SalesReps.Clone()
	}
	if p.PaymentLinks != nil {
		c.PaymentLinks = p.PaymentLinks.Clone()
	}
	if p.PaymentProcessors != nil {
		c.PaymentProcessors = p.PaymentProcessors.Clone()
	}
	if p.Notes != nil {
		c.Notes = p.Notes.Clone()
	}
	applyField(&c.NonRecurringRevenue, p.NonRecurringRevenue)
	applyField(&c.MonthlyRecurringFee, p.MonthlyRecurringFee)
	applyField(&c.OtherFees, p.OtherFees)
	applyField(&c.DealAmount, p.DealAmount)
	applyField(&c.Cogs, p.Cogs)
	applyField(&c.CommissionRate, p.CommissionRate)
	applyField(&c.PaymentTermMonths, p.PaymentTermMonths)
	applyField(&c.PaidToDateAmount, p.PaidToDateAmount)
	applyField(&c.CommissionPaidAmount, p.CommissionPaidAmount)
	applyField(&c.PaymentStatus, p.PaymentStatus)
	applyField(&c.UpdatedAt, p.UpdatedAt)
}

func applyField[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Columns maps the set fields to customers table columns for a gorm
// Updates call.
func (p CustomerPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	setColumn(cols, "business_name", p.BusinessName)
	setColumn(cols, "contact_name", p.ContactName)
	setColumn(cols, "contact_email", p.ContactEmail)
	setColumn(cols, "contact_phone", p.ContactPhone)
	setColumn(cols, "address", p.Address)
	setColumn(cols, "status", p.Status)
	setColumn(cols, "current_stage_id", p.CurrentStageID)
	setColumn(cols, "task_statuses", p.TaskStatuses)
	setColumn(cols, "task_metadata", p.TaskMetadata)
	setColumn(cols, "machines", p.Machines)
	setColumn(cols, "sales_reps", p.SalesReps)
	setColumn(cols, "payment_links", p.PaymentLinks)
	setColumn(cols, "payment_processors", p.PaymentProcessors)
	setColumn(cols, "notes", p.Notes)
	setColumn(cols, "non_recurring_revenue", p.NonRecurringRevenue)
	setColumn(cols, "monthly_recurring_fee", p.MonthlyRecurringFee)
	setColumn(cols, "other_fees", p.OtherFees)
	setColumn(cols, "deal_amount", p.DealAmount)
	setColumn(cols, "cogs", p.Cogs)
	setColumn(cols, "commission_rate", p.CommissionRate)
	setColumn(cols, "payment_term_months", p.PaymentTermMonths)
	setColumn(cols, "paid_to_date_amount", p.PaidToDateAmount)
	setColumn(cols, "commission_paid_amount", p.CommissionPaidAmount)
	setColumn(cols, "payment_status", p.PaymentStatus)
	setColumn(cols, "updated_at", p.UpdatedAt)
	return cols
}

func setColumn[T any](cols map[string]interface{}, name string, v *T) {
	if v != nil {
		cols[name] = *v
	}
}

// PatchFromCustomer builds a patch that sets every field of c.
func PatchFromCustomer(c *Customer) CustomerPatch {
	updatedAt := c.UpdatedAt
	return CustomerPatch{
		BusinessName:         Ptr(c.BusinessName),
		ContactName:          Ptr(c.ContactName),
		ContactEmail:         Ptr(c.ContactEmail),
		ContactPhone:         Ptr(c.ContactPhone),
		Address:              Ptr(c.Address),
		Status:               Ptr(c.Status),
		CurrentStageID:       Ptr(c.CurrentStageID),
		TaskStatuses:         Ptr(c.TaskStatuses.Clone()),
		TaskMetadata:         Ptr(c.TaskMetadata.Clone()),
		Machines:             Ptr(c.Machines.Clone()),
		SalesReps:            Ptr(c.SalesReps.Clone()),
		PaymentLinks:         Ptr(c.PaymentLinks.Clone()),
		PaymentProcessors:    Ptr(c.PaymentProcessors.Clone()),
		Notes:                Ptr(c.Notes.Clone()),
		NonRecurringRevenue:  Ptr(c.NonRecurringRevenue),
		MonthlyRecurringFee:  Ptr(c.MonthlyRecurringFee),
		OtherFees:            Ptr(c.OtherFees),
		DealAmount:           Ptr(c.DealAmount),
		Cogs:                 Ptr(c.Cogs),
		CommissionRate:       Ptr(c.CommissionRate),
		PaymentTermMonths:    Ptr(c.PaymentTermMonths),
		PaidToDateAmount:     Ptr(c.PaidToDateAmount),
		CommissionPaidAmount: Ptr(c.CommissionPaidAmount),
		PaymentStatus:        Ptr(c.PaymentStatus),
		UpdatedAt:            &updatedAt,
	}
}
