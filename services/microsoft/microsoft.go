package microsoft

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "microsoft"

type graphProfile struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
}

func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.AzureAD("common"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"User.Read", "offline_access"},
		SubscribeScopes: []string{
			"User.Read", "offline_access", "Mail.Read", "Calendars.Read",
		},
		ProfileURL: "https://graph.microsoft.com/v1.0/me",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p graphProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			email := p.Mail
			if email == "" {
				email = p.UserPrincipalName
			}
			return &services.Profile{ID: p.ID, Email: email, Username: p.DisplayName}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Microsoft",
		Description: "React to Outlook mail and calendar activity",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "new_email",
				Name:        "New Outlook email",
				Description: "Triggers when a new email arrives in the Outlook inbox",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"from": {"type": "string"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category:     "email",
					Tags:         []string{"outlook", "email"},
					RequiresAuth: true,
				},
			},
			{
				ID:          "calendar_event_started",
				Name:        "Calendar event started",
				Description: "Triggers when an Outlook calendar event begins",
				ConfigSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
				Metadata: services.ActionMetadata{
					Category:     "calendar",
					Tags:         []string{"outlook", "calendar"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "send_email",
				Name:        "Send an Outlook email",
				Description: "Sends an email through the connected Outlook account",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"to": {"type": "string"},
						"subject": {"type": "string"},
						"body": {"type": "string"}
					},
					"required": ["to", "subject"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "email",
					Tags:              []string{"outlook", "email"},
					RequiresAuth:      true,
					EstimatedDuration: 2,
				},
			},
		},
	}

	svc.Credentials = func(db *gorm.DB, userID uint) (map[string]string, error) {
		token, err := connector.Token(db, userID)
		if err != nil {
			return nil, err
		}
		if token == nil {
			return nil, fmt.Errorf("no microsoft token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
