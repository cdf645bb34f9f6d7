package twitch

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "twitch"

// OIDC userinfo avoids the extra Client-Id header the Helix API requires.
type twitchProfile struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.Twitch,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"openid", "user:read:email"},
		SubscribeScopes: []string{
			"openid", "user:read:email", "channel:read:subscriptions",
		},
		ProfileURL: "https://id.twitch.tv/oauth2/userinfo",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p twitchProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{ID: p.Sub, Email: p.Email, Username: p.PreferredUsername}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Twitch",
		Description: "React to streams going live and channel activity",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "stream_online",
				Name:        "Stream went live",
				Description: "Triggers when a followed channel goes live",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"broadcaster": {"type": "string"}
					},
					"required": ["broadcaster"]
				}`),
				Metadata: services.ActionMetadata{
					Category:     "streaming",
					Tags:         []string{"live"},
					RequiresAuth: true,
				},
			},
			{
				ID:          "new_follower",
				Name:        "New follower",
				Description: "Triggers when the channel gains a follower",
				ConfigSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
				Metadata: services.ActionMetadata{
					Category:     "streaming",
					Tags:         []string{"follower"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "send_chat_message",
				Name:        "Send a chat message",
				Description: "Posts a message into the channel chat",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"broadcaster": {"type": "string"},
						"message": {"type": "string"}
					},
					"required": ["broadcaster", "message"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "streaming",
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
			return nil, fmt.Errorf("no twitch token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
