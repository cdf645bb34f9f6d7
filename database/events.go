package database

import "encoding/json"

const EventStatusReceived = "received"

// WebhookEvent is one inbound provider event (or timer tick), recorded for
// the execution engine to pick up.
type WebhookEvent struct {
	Model
	ActionType string          `json:"action_type" gorm:"index;type:varchar(100)"`
	UserId     uint            `json:"user_id" gorm:"index"`
	MappingId  *uint           `json:"mapping_id,omitempty" gorm:"index"`
	Source     string          `json:"source" gorm:"type:varchar(100)"`
	ExternalId string          `json:"external_id" gorm:"type:varchar(255)"`
	Payload    json.RawMessage `json:"payload"`
	Status     string          `json:"status" gorm:"type:varchar(50);default:'received'"`
	UserAgent  string          `json:"user_agent,omitempty"`
}
