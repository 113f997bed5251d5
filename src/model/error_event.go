package model

import "time"

// ErrorEvent is the canonical record for one error report received from a
// monitoring platform webhook (Sentry or GlitchTip).
type ErrorEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Identity of the originating event, as far as the payload exposes it.
	EventID string `gorm:"column:event_id;size:128;index" json:"event_id"`
	Project string `gorm:"column:project;size:200;index" json:"project"`

	// Error information
	Message        string `gorm:"type:text" json:"message"`
	ExceptionType  string `gorm:"column:exception_type;size:200" json:"exception_type"`
	ExceptionValue string `gorm:"column:exception_value;type:text" json:"exception_value"`
	Stacktrace     string `gorm:"type:text" json:"stacktrace"`

	// Severity level reported by the platform: debug | info | warning | error | fatal
	Level string `gorm:"size:20;index" json:"level"`

	// Issue linkage (GlitchTip webhooks reference an issue, not an event)
	IssueID        string `gorm:"column:issue_id;size:64" json:"issue_id,omitempty"`
	IssuePermalink string `gorm:"column:issue_permalink;size:500" json:"issue_permalink,omitempty"`

	// Full webhook body exactly as received, kept for audit and debugging.
	RawPayload string `gorm:"column:raw_payload;type:text" json:"raw_payload"`

	// Server-assigned ingestion time (UTC). Never taken from the payload.
	ReceivedAt time.Time `gorm:"column:received_at;index" json:"received_at"`
}

func (ErrorEvent) TableName() string {
	return "error_events"
}
