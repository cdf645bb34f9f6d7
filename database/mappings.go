package database

import "encoding/json"

// Mapping binds one action (with its trigger config) to the reactions that
// should run when the action fires. The trigger engine consuming these rows
// lives outside this backend.
type Mapping struct {
	Model
	Name         string          `json:"name" gorm:"unique;type:varchar(100)"`
	Description  string          `json:"description"`
	ActionType   string          `json:"action_type" gorm:"index;type:varchar(100)"`
	ActionConfig json.RawMessage `json:"action_config"`
	Reactions    json.RawMessage `json:"reactions"`
	IsActive     bool            `json:"is_active" gorm:"index"`
	CreatedBy    uint            `json:"created_by" gorm:"index"`
}
