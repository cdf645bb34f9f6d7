package database

import (
	"strings"
	"time"
)

// UserToken holds the OAuth token material for one (user, provider) pair.
// Rows are upserted on re-authorization and flagged revoked instead of
// deleted, so unsubscribing from a service never destroys the connection.
type UserToken struct {
	Model
	UserId        uint       `json:"user_id" gorm:"index:idx_user_provider,unique"`
	User          User       `json:"-" gorm:"foreignKey:UserId;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	Provider      string     `json:"provider" gorm:"index:idx_user_provider,unique;type:varchar(50)"`
	AccessToken   string     `json:"-"`
	RefreshToken  string     `json:"-"`
	TokenType     string     `json:"token_type" gorm:"type:varchar(50)"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Scopes        string     `json:"scopes"`
	IsRevoked     bool       `json:"is_revoked"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	RevokedReason string     `json:"-"`
}

// ScopeList splits the stored comma separated scope string.
func (t *UserToken) ScopeList() []string {
	if t.Scopes == "" {
		return []string{}
	}
	return strings.Split(t.Scopes, ",")
}

// Expired reports whether the token carries an expiry in the past.
func (t *UserToken) Expired() bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now())
}

func JoinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}
