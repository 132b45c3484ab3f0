package domain

import (
	"database/sql/driver"
	"time"
)

// TaskStatusMap holds one status per catalog task id. Missing keys read as
// not_started; keys unknown to the catalog are kept but ignored.
type TaskStatusMap map[string]TaskStatus

func (m TaskStatusMap) Get(taskID string) TaskStatus {
	if s, ok := m[taskID]; ok && s != "" {
		return s
	}
	return TaskStatusNotStarted
}

func (m TaskStatusMap) Clone() TaskStatusMap {
	if m == nil {
		return nil
	}
	out := make(TaskStatusMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m TaskStatusMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return valueJSON(map[string]TaskStatus(m))
}

func (m *TaskStatusMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, (*map[string]TaskStatus)(m))
}

type TaskMeta struct {
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskMetadataMap map[string]TaskMeta

func (m TaskMetadataMap) Clone() TaskMetadataMap {
	if m == nil {
		return nil
	}
	out := make(TaskMetadataMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m TaskMetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return valueJSON(map[string]TaskMeta(m))
}

func (m *TaskMetadataMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, (*map[string]TaskMeta)(m))
}

// ==================== SUB-RECORDS ====================

type Machine struct {
	ID            string      `json:"id"`
	MachineNumber int         `json:"machine_number"`
	Type          MachineType `json:"type"`
	Make          string      `json:"make"`
	Model         string      `json:"model"`
	SerialNumber  string      `json:"serial_number"`
	CoinsAccepted []string    `json:"coins_accepted,omitempty"`
	Pricing       float64     `json:"pricing"`
}

func (m Machine) Clone() Machine {
	if m.CoinsAccepted != nil {
		m.CoinsAccepted = append([]string(nil), m.CoinsAccepted...)
	}
	return m
}

type MachineList []Machine

func (l MachineList) Clone() MachineList {
	if l == nil {
		return nil
	}
	out := make(MachineList, len(l))
	for i, m := range l {
		out[i] = m.Clone()
	}
	return out
}

// Index returns the position of the machine with the given id, or -1.
func (l MachineList) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

func (l MachineList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return valueJSON([]Machine(l))
}

func (l *MachineList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, (*[]Machine)(l))
}

type SalesRepAssignment struct {
	RepID             string  `json:"rep_id"`
	RepName           string  `json:"rep_name"`
	CommissionPercent float64 `json:"commission_percent"`
}

type SalesRepList []SalesRepAssignment

func (l SalesRepList) Clone() SalesRepList {
	if l == nil {
		return nil
	}
	return append(SalesRepList(nil), l...)
}

func (l SalesRepList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return valueJSON([]SalesRepAssignment(l))
}

func (l *SalesRepList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, (*[]SalesRepAssignment)(l))
}

type PaymentLink struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentLinkList []PaymentLink

func (l PaymentLinkList) Clone() PaymentLinkList {
	if l == nil {
		return nil
	}
	return append(PaymentLinkList(nil), l...)
}

func (l PaymentLinkList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return valueJSON([]PaymentLink(l))
}

func (l *PaymentLinkList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, (*[]PaymentLink)(l))
}

type PaymentProcessor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MerchantID string    `json:"merchant_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type PaymentProcessorList []PaymentProcessor

func (l PaymentProcessorList) Clone() PaymentProcessorList {
	if l == nil {
		return nil
	}
	return append(PaymentProcessorList(nil), l...)
}

func (l PaymentProcessorList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return valueJSON([]PaymentProcessor(l))
}

func (l *PaymentProcessorList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, (*[]PaymentProcessor)(l))
}

type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type NoteList []Note

func (l NoteList) Clone() NoteList {
	if l == nil {
		return nil
	}
	return append(NoteList(nil), l...)
}

func (l NoteList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return valueJSON([]Note(l))
}

func (l *NoteList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, (*[]Note)(l))
}
