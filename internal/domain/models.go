package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type CustomerStatus string

const (
	CustomerStatusOnboarding CustomerStatus = "onboarding"
	CustomerStatusOnHold     CustomerStatus = "on_hold"
	CustomerStatusLive       CustomerStatus = "live"
	CustomerStatusChurned    CustomerStatus = "churned"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusOnboarding, CustomerStatusOnHold, CustomerStatusLive, CustomerStatusChurned:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusComplete   TaskStatus = "complete"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusComplete:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type MachineType string

const (
	MachineTypeWasher MachineType = "washer"
	MachineTypeDryer  MachineType = "dryer"
)

func (t MachineType) Valid() bool {
	return t == MachineTypeWasher || t == MachineTypeDryer
}

type EventStatus string

const (
	EventStatusPending EventStatus = "pending"
	EventStatusSuccess EventStatus = "success"
	EventStatusFailed  EventStatus = "failed"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSON(value, j)
}

// scanJSON decodes a json/jsonb column. Postgres hands back []byte, sqlite
// may hand back a string.
func scanJSON(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan JSONB: invalid type")
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ==================== ENTITIES ====================

// Customer is the onboarding aggregate. The sync engine cache owns the
// working copy; the customers table is the durable copy.
type Customer struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BusinessName string         `gorm:"size:255" json:"business_name"`
	ContactName  string         `gorm:"size:255" json:"contact_name"`
	ContactEmail string         `gorm:"size:255" json:"contact_email"`
	ContactPhone string         `gorm:"size:50" json:"contact_phone"`
	Address      string         `gorm:"type:text" json:"address"`
	Status       CustomerStatus `gorm:"size:20;not null;default:'onboarding';index" json:"status"`

	CurrentStageID string          `gorm:"size:100" json:"current_stage_id"`
	TaskStatuses   TaskStatusMap   `gorm:"type:jsonb" json:"task_statuses"`
	TaskMetadata   TaskMetadataMap `gorm:"type:jsonb" json:"task_metadata"`

	Machines          MachineList          `gorm:"type:jsonb" json:"machines"`
	SalesReps         SalesRepList         `gorm:"type:jsonb" json:"sales_reps"`
	PaymentLinks      PaymentLinkList      `gorm:"type:jsonb" json:"payment_links"`
	PaymentProcessors PaymentProcessorList `gorm:"type:jsonb" json:"payment_processors"`
	Notes             NoteList             `gorm:"type:jsonb" json:"notes"`

	// Financials
	NonRecurringRevenue  float64       `gorm:"default:0" json:"non_recurring_revenue"`
	MonthlyRecurringFee  float64       `gorm:"default:0" json:"monthly_recurring_fee"`
	OtherFees            float64       `gorm:"default:0" json:"other_fees"`
	DealAmount           float64       `gorm:"default:0" json:"deal_amount"`
	Cogs                 float64       `gorm:"default:0" json:"cogs"`
	CommissionRate       float64       `gorm:"default:0" json:"commission_rate"`
	PaymentTermMonths    int           `gorm:"default:0" json:"payment_term_months"`
	PaidToDateAmount     float64       `gorm:"default:0" json:"paid_to_date_amount"`
	CommissionPaidAmount float64       `gorm:"default:0" json:"commission_paid_amount"`
	PaymentStatus        PaymentStatus `gorm:"size:20;not null;default:'unpaid'" json:"payment_status"`
}

// Clone returns a deep copy so cache readers never alias cached state.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	out.TaskStatuses = c.TaskStatuses.Clone()
	out.TaskMetadata = c.TaskMetadata.Clone()
	out.Machines = c.Machines.Clone()
	out.SalesReps = c.SalesReps.Clone()
	out.PaymentLinks = c.PaymentLinks.Clone()
	out.PaymentProcessors = c.PaymentProcessors.Clone()
	out.Notes = c.Notes.Clone()
	return &out
}

type TimelineEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Type         string      `gorm:"size:100;not null;index" json:"type"`
	Status       EventStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Message      string      `gorm:"type:text" json:"message"`
	Meta         JSONB       `gorm:"type:jsonb" json:"meta"`
	ResourceID   string      `gorm:"size:36;index" json:"resource_id,omitempty"`
	ResourceType string      `gorm:"size:100;index" json:"resource_type"`
}
