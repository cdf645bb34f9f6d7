package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "github"

type githubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// New builds the GitHub integration module. Login uses a minimal scope set,
// subscribing additionally requests repo access for webhook management.
func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:        serviceID,
		Endpoint:        endpoints.GitHub,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     redirectURL,
		LoginScopes:     []string{"user:email"},
		SubscribeScopes: []string{"user:email", "repo"},
		ProfileURL:      "https://api.github.com/user",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p githubProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			// Noreply addresses are not deliverable, treat them as
			// missing so the email fallback kicks in.
			if strings.HasSuffix(p.Email, "@users.noreply.github.com") {
				p.Email = ""
			}
			return &services.Profile{
				ID:       fmt.Sprintf("%d", p.ID),
				Email:    p.Email,
				Username: p.Login,
			}, nil
		},
		FetchEmail: fetchPrimaryEmail,
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "GitHub",
		Description: "React to pushes, pull requests and issues on your repositories",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "push",
				Name:        "Push to repository",
				Description: "Triggers when commits are pushed to a repository",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"repository": {"type": "string", "description": "Repository in owner/name form"},
						"branch": {"type": "string"}
					},
					"required": ["repository"]
				}`),
				OutputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"ref": {"type": "string"},
						"commits": {"type": "array"},
						"pusher": {"type": "object"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "push"},
					RequiresAuth:   true,
					WebhookPattern: "push",
					TargetKey:      "repository",
				},
			},
			{
				ID:          "pull_request",
				Name:        "Pull request activity",
				Description: "Triggers when a pull request is opened, closed or merged",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"repository": {"type": "string"},
						"action": {"type": "string", "enum": ["opened", "closed", "merged", "any"]}
					},
					"required": ["repository"]
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "pull-request"},
					RequiresAuth:   true,
					WebhookPattern: "pull_request",
					TargetKey:      "repository",
				},
			},
			{
				ID:          "issues",
				Name:        "Issue activity",
				Description: "Triggers when an issue is opened, edited or closed",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"repository": {"type": "string"}
					},
					"required": ["repository"]
				}`),
				Metadata: services.ActionMetadata{
					Category:       "repository",
					Tags:           []string{"git", "issues"},
					RequiresAuth:   true,
					WebhookPattern: "issues",
					TargetKey:      "repository",
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "create_issue",
				Name:        "Create an issue",
				Description: "Opens a new issue on a repository",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"repository": {"type": "string"},
						"title": {"type": "string"},
						"body": {"type": "string"}
					},
					"required": ["repository", "title"]
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
			return nil, fmt.Errorf("no github token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	mgr := &webhookManager{connector: connector}
	svc.EnsureWebhookForMapping = mgr.EnsureWebhookForMapping
	svc.DeleteWebhook = mgr.DeleteWebhook

	// When a GitHub App slug is configured, subscribing routes through the
	// App installation page instead of a plain OAuth authorization.
	if slug := os.Getenv("SERVICE_GITHUB_APP_SLUG"); slug != "" {
		svc.SubscribeURL = func(db *gorm.DB, userID uint) (string, bool) {
			return fmt.Sprintf("https://github.com/apps/%s/installations/new?state=%d", slug, userID), true
		}
	}

	return svc
}

// fetchPrimaryEmail backfills the address when the profile endpoint returns
// none, which happens for accounts with a private email.
func fetchPrimaryEmail(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.github.com/user/emails", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing emails: status %d", resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("no verified email on account")
}
