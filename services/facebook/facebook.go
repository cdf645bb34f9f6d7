package facebook

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "facebook"

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.Facebook,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"email", "public_profile"},
		SubscribeScopes: []string{
			"email", "public_profile", "pages_show_list",
		},
		ProfileURL: "https://graph.facebook.com/me?fields=id,name,email",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p facebookProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{ID: p.ID, Email: p.Email, Username: p.Name}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Facebook",
		Description: "React to page activity on connected pages",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "page_post_created",
				Name:        "New post on page",
				Description: "Triggers when a new post is published on a managed page",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"page_id": {"type": "string"}
					},
					"required": ["page_id"]
				}`),
				Metadata: services.ActionMetadata{
					Category:     "social",
					Tags:         []string{"pages"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "create_page_post",
				Name:        "Publish a page post",
				Description: "Publishes a post on a managed page",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"page_id": {"type": "string"},
						"message": {"type": "string"}
					},
					"required": ["page_id", "message"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "social",
					Tags:              []string{"pages"},
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
			return nil, fmt.Errorf("no facebook token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
