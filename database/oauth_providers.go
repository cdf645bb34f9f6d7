package database

import "time"

const (
	// ConnectionTypeAuth marks links created through the login flow.
	ConnectionTypeAuth = "auth"
	// ConnectionTypeService marks links created through the subscribe flow.
	ConnectionTypeService = "service"
)

// UserOAuthProvider links a local user to an account at a provider.
type UserOAuthProvider struct {
	Model
	UserId           uint       `json:"user_id" gorm:"index:idx_link_user_provider,unique"`
	User             User       `json:"-" gorm:"foreignKey:UserId;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	Provider         string     `json:"provider" gorm:"index:idx_link_user_provider,unique;index:idx_provider_remote;type:varchar(50)"`
	ConnectionType   string     `json:"connection_type" gorm:"type:varchar(20)"`
	ProviderId       string     `json:"provider_id" gorm:"index:idx_provider_remote;type:varchar(255)"`
	ProviderEmail    string     `json:"provider_email"`
	ProviderUsername string     `json:"provider_username"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
}
