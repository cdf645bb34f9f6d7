package database

import "time"

// UserServiceSubscription tracks the subscribed/unsubscribed state for one
// (user, service) pair. Rows are soft state: unsubscribing flips the flag
// and stamps unsubscribed_at, it never deletes the record.
type UserServiceSubscription struct {
	Model
	UserId         uint       `json:"user_id" gorm:"index:idx_sub_user_service,unique"`
	User           User       `json:"-" gorm:"foreignKey:UserId;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	Service        string     `json:"service" gorm:"index:idx_sub_user_service,unique;type:varchar(50)"`
	Subscribed     bool       `json:"subscribed"`
	SubscribedAt   *time.Time `json:"subscribed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}
