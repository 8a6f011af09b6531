package tasks

// Task types
const (
	TypeOutreachBatch  = "outreach:batch"
	TypeHealthCheck    = "health:check"
	TypeConnectionTest = "connection:test"
)

// TaskPriority defines priority levels for tasks
const (
	PriorityLow      = "low"
	PriorityDefault  = "default"
	PriorityCritical = "critical"
)

// OutreachPayload is the payload of an outreach batch task. One task is one
// account's batch; handles for different accounts go in separate tasks so a
// dead session on one account never blocks another.
type OutreachPayload struct {
	BatchID   string   `json:"batch_id"`
	AccountID string   `json:"account_id"`
	Handles   []string `json:"handles"`
	Message   string   `json:"message,omitempty"`
	// StartAt resumes a previously interrupted batch from an offset.
	StartAt    int `json:"start_at,omitempty"`
	MaxActions int `json:"max_actions,omitempty"`
}
