package slack

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "slack"

type identityResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// New builds the Slack integration module. Slack is connect-only: it cannot
// be used to log in, only to subscribe an already authenticated user.
func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.Slack,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"identity.basic", "identity.email"},
		SubscribeScopes: []string{
			"identity.basic", "identity.email", "chat:write", "channels:read",
		},
		ProfileURL: "https://slack.com/api/users.identity",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var resp identityResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}
			if !resp.OK {
				return nil, fmt.Errorf("slack identity call failed: %s", resp.Error)
			}
			return &services.Profile{
				ID:       resp.User.ID,
				Email:    resp.User.Email,
				Username: resp.User.Name,
			}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Slack",
		Description: "Post messages and react to workspace activity",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: false,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "message_posted",
				Name:        "Message posted in channel",
				Description: "Triggers when a message is posted in a channel",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"channel": {"type": "string"}
					},
					"required": ["channel"]
				}`),
				Metadata: services.ActionMetadata{
					Category:     "messaging",
					Tags:         []string{"chat"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "post_message",
				Name:        "Post a message",
				Description: "Posts a message into a channel",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"channel": {"type": "string"},
						"text": {"type": "string"}
					},
					"required": ["channel", "text"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "messaging",
					Tags:              []string{"chat"},
					RequiresAuth:      true,
					EstimatedDuration: 1,
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
			return nil, fmt.Errorf("no slack token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
