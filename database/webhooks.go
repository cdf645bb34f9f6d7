package database

import (
	"strings"
	"time"
)

// ExternalWebhook is the local bookkeeping for one webhook created on a
// provider. is_active is flipped to false when the remote webhook is gone,
// even when the remote deletion itself failed.
type ExternalWebhook struct {
	Model
	UserId          uint       `json:"user_id" gorm:"index"`
	User            User       `json:"-" gorm:"foreignKey:UserId;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	Service         string     `json:"service" gorm:"index;type:varchar(100)"`
	ExternalId      string     `json:"external_id" gorm:"type:varchar(255)"`
	Target          string     `json:"target" gorm:"type:varchar(255)"`
	URL             string     `json:"url" gorm:"type:varchar(500)"`
	Secret          string     `json:"-" gorm:"type:varchar(255)"`
	Events          string     `json:"events"`
	IsActive        bool       `json:"is_active" gorm:"index"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

func (w *ExternalWebhook) EventList() []string {
	if w.Events == "" {
		return []string{}
	}
	return strings.Split(w.Events, ",")
}
