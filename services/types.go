package services

import (
	"encoding/json"

	"backend/database"

	"gorm.io/gorm"
)

// ActionMetadata describes how an action behaves beyond its schemas.
// WebhookPattern is the provider-side event name a webhook must deliver for
// this action; TargetKey names the config field that selects the remote
// target (repository, project, channel). Actions without a WebhookPattern
// never provision webhooks.
type ActionMetadata struct {
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	RequiresAuth   bool     `json:"requires_auth"`
	WebhookPattern string   `json:"webhook_pattern,omitempty"`
	TargetKey      string   `json:"target_key,omitempty"`
}

type ReactionMetadata struct {
	Category          string   `json:"category"`
	Tags              []string `json:"tags"`
	RequiresAuth      bool     `json:"requires_auth"`
	EstimatedDuration int      `json:"estimated_duration,omitempty"`
}

// ActionDefinition is one trigger a service can report. ID is local to the
// service; the fully qualified form is "service.id".
type ActionDefinition struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ConfigSchema json.RawMessage `json:"config_schema"`
	OutputSchema json.RawMessage `json:"output_schema"`
	Metadata     ActionMetadata  `json:"metadata"`
}

// ReactionDefinition is one effect a service can execute.
type ReactionDefinition struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	InputSchema  json.RawMessage  `json:"input_schema"`
	OutputSchema json.RawMessage  `json:"output_schema"`
	Metadata     ReactionMetadata `json:"metadata"`
}

// OAuthSettings declares whether and how a service connects via OAuth.
type OAuthSettings struct {
	Enabled       bool
	SupportsLogin bool
	Connector     *Connector
}

// Service is one integration module: a provider's identity, its action and
// reaction catalog, and optional OAuth/webhook hooks. Hooks are function
// fields so token-only providers simply leave them nil.
type Service struct {
	ID          string
	Name        string
	Description string
	Version     string

	Actions   []ActionDefinition
	Reactions []ReactionDefinition

	OAuth *OAuthSettings

	// AlwaysSubscribed short-circuits subscription checks for pseudo
	// services like the timer that need no opt-in.
	AlwaysSubscribed bool

	Credentials             func(db *gorm.DB, userID uint) (map[string]string, error)
	DeleteWebhook           func(db *gorm.DB, userID uint, webhookID uint) error
	EnsureWebhookForMapping func(db *gorm.DB, mapping *database.Mapping, userID uint, action ActionDefinition) error

	// SubscribeURL lets a module supply its own authorization URL for the
	// subscribe flow (the GitHub App installation step). The bool reports
	// whether a URL is available for this user.
	SubscribeURL func(db *gorm.DB, userID uint) (string, bool)
}

// ActionType returns the fully qualified type for a local action id.
func (s *Service) ActionType(id string) string {
	return s.ID + "." + id
}

// NeedsOAuth reports whether connecting this service requires OAuth.
func (s *Service) NeedsOAuth() bool {
	return s.OAuth != nil && s.OAuth.Enabled
}

// OAuthConnected reports whether the user holds a usable credential for
// this service. Services without OAuth are always considered connected.
func (s *Service) OAuthConnected(db *gorm.DB, userID uint) bool {
	if !s.NeedsOAuth() || s.OAuth.Connector == nil {
		return true
	}
	tok, err := s.OAuth.Connector.Token(db, userID)
	return err == nil && tok != nil
}
