package google

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "google"

type googleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// New builds the Google integration module. Offline access is requested so a
// refresh token is issued on the first consent.
func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.Google,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"openid", "email", "profile"},
		SubscribeScopes: []string{
			"openid", "email", "profile",
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/calendar.events",
		},
		ProfileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p googleProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{ID: p.ID, Email: p.Email, Username: p.Name}, nil
		},
		AuthURLParams: []oauth2.AuthCodeOption{
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"),
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Google",
		Description: "React to incoming mail and calendar events",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "new_email",
				Name:        "New email received",
				Description: "Triggers when a new email arrives in the inbox",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"from": {"type": "string", "description": "Only match mail from this sender"},
						"subject_contains": {"type": "string"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category:     "email",
					Tags:         []string{"gmail", "email"},
					RequiresAuth: true,
				},
			},
			{
				ID:          "calendar_event_started",
				Name:        "Calendar event started",
				Description: "Triggers when a calendar event begins",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"calendar_id": {"type": "string", "default": "primary"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category:     "calendar",
					Tags:         []string{"calendar"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "send_email",
				Name:        "Send an email",
				Description: "Sends an email from the connected account",
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
					Tags:              []string{"gmail", "email"},
					RequiresAuth:      true,
					EstimatedDuration: 2,
				},
			},
			{
				ID:          "create_calendar_event",
				Name:        "Create a calendar event",
				Description: "Adds an event to the primary calendar",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"summary": {"type": "string"},
						"start": {"type": "string", "format": "date-time"},
						"end": {"type": "string", "format": "date-time"}
					},
					"required": ["summary", "start"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "calendar",
					Tags:              []string{"calendar"},
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
			return nil, fmt.Errorf("no google token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
