package domain

const ResourceTypeCustomer = "customer"

// Customer timeline event types
const (
	EventTypeCustomerCreated = "CUSTOMER_CREATED"
	EventTypeCustomerUpdated = "CUSTOMER_UPDATED"
	EventTypeCustomerDeleted = "CUSTOMER_DELETED"
	EventTypeTaskStatus      = "TASK_STATUS"
	EventTypeStageAdvanced   = "STAGE_ADVANCED"
	EventTypeFinancials      = "FINANCIALS_UPDATED"
	EventTypePaymentRecorded = "PAYMENT_RECORDED"
	EventTypeCommissionPaid  = "COMMISSION_PAID"
	EventTypeSalesSplit      = "SALES_SPLIT"
	EventTypeMachineAdded    = "MACHINE_ADDED"
	EventTypeMachineRemoved  = "MACHINE_REMOVED"
	EventTypeMachineRenumber = "MACHINE_RENUMBER"
	EventTypeMachinesCloned  = "MACHINES_CLONED"
)
