package services

import "errors"

// Customer errors
var (
	ErrCustomerNotFound     = errors.New("customer: not found")
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
)

// Task errors
var (
	ErrTaskNotFound      = errors.New("task: not in catalog")
	ErrTaskInvalidStatus = errors.New("task: invalid status")
)

// Sub-record errors
var (
	ErrNoteNotFound             = errors.New("note: not found")
	ErrPaymentLinkNotFound      = errors.New("payment link: not found")
	ErrPaymentProcessorNotFound = errors.New("payment processor: not found")
)

// Ledger errors
var (
	ErrLedgerInvalidInput = errors.New("ledger: invalid input")
)

// Machine errors
var (
	ErrMachineInvalidInput = errors.New("machine: invalid input")
	ErrCloneCount          = errors.New("machine: clone count out of range")
)
