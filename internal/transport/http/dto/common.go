package dto

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// JobAccepted is returned when an operation continues in the background.
type JobAccepted struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}
