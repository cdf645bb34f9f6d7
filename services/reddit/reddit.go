package reddit

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const serviceID = "reddit"

// Reddit has no entry in the shared endpoints catalog.
var redditEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.reddit.com/api/v1/authorize",
	TokenURL: "https://www.reddit.com/api/v1/access_token",
}

type redditProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// New builds the Reddit integration module. Connect-only: Reddit never
// exposes an email address, so it cannot back a login.
func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:        serviceID,
		Endpoint:        redditEndpoint,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     redirectURL,
		LoginScopes:     []string{"identity"},
		SubscribeScopes: []string{"identity", "read", "submit"},
		ProfileURL:      "https://oauth.reddit.com/api/v1/me",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p redditProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{ID: p.ID, Username: p.Name}, nil
		},
		AuthURLParams: []oauth2.AuthCodeOption{
			oauth2.SetAuthURLParam("duration", "permanent"),
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Reddit",
		Description: "React to subreddit activity and post content",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: false,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "new_post",
				Name:        "New post in subreddit",
				Description: "Triggers when a new post appears in a subreddit",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"subreddit": {"type": "string"}
					},
					"required": ["subreddit"]
				}`),
				Metadata: services.ActionMetadata{
					Category:     "social",
					Tags:         []string{"posts"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "submit_post",
				Name:        "Submit a post",
				Description: "Submits a text post to a subreddit",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"subreddit": {"type": "string"},
						"title": {"type": "string"},
						"text": {"type": "string"}
					},
					"required": ["subreddit", "title"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "social",
					Tags:              []string{"posts"},
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
			return nil, fmt.Errorf("no reddit token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
