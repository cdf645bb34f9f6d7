package gitlab

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "gitlab"

type gitlabProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:        serviceID,
		Endpoint:        endpoints.GitLab,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     redirectURL,
		LoginScopes:     []string{"read_user"},
		SubscribeScopes: []string{"read_user", "api"},
		ProfileURL:      "https://gitlab.com/api/v4/user",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p gitlabProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{
				ID:       fmt.Sprintf("%d", p.ID),
				Email:    p.Email,
				Username: p.Username,
			}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "GitLab",
		Description: "React to pushes, merge requests and issues on your projects",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "push",
				Name:        "Push to project",
				Description: "Triggers when commits are pushed to a project",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"project": {"type": "string", "description": "Numeric project id or namespace/name"}
					},
					"required": ["project"]
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "push"},
					RequiresAuth:   true,
					WebhookPattern: "push_events",
					TargetKey:      "project",
				},
			},
			{
				ID:          "merge_request",
				Name:        "Merge request activity",
				Description: "Triggers when a merge request is opened, merged or closed",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"project": {"type": "string"}
					},
					"required": ["project"]
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "merge-request"},
					RequiresAuth:   true,
					WebhookPattern: "merge_requests_events",
					TargetKey:      "project",
				},
			},
			{
				ID:          "issues",
				Name:        "Issue activity",
				Description: "Triggers when an issue changes on a project",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"project": {"type": "string"}
					},
					"required": ["project"]
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "issues"},
					RequiresAuth:   true,
					WebhookPattern: "issues_events",
					TargetKey:      "project",
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "create_issue",
				Name:        "Create an issue",
				Description: "Opens a new issue on a project",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"project": {"type": "string"},
						"title": {"type": "string"},
						"description": {"type": "string"}
					},
					"required": ["project", "title"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "repository",
					Tags:              []string{"git", "issues"},
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
			return nil, fmt.Errorf("no gitlab token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	mgr := &webhookManager{connector: connector}
	svc.EnsureWebhookForMapping = mgr.EnsureWebhookForMapping
	svc.DeleteWebhook = mgr.DeleteWebhook

	return svc
}
