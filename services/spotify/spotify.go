package spotify

import (
	"encoding/json"
	"fmt"

	"backend/services"

	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const serviceID = "spotify"

type spotifyProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func New() *services.Service {
	clientID, clientSecret, redirectURL := services.EnvCredentials(serviceID)

	connector := &services.Connector{
		Provider:     serviceID,
		Endpoint:     endpoints.Spotify,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		LoginScopes:  []string{"user-read-email"},
		SubscribeScopes: []string{
			"user-read-email", "user-read-playback-state",
			"user-library-read", "playlist-modify-public",
		},
		ProfileURL: "https://api.spotify.com/v1/me",
		DecodeProfile: func(body []byte) (*services.Profile, error) {
			var p spotifyProfile
			if err := json.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return &services.Profile{ID: p.ID, Email: p.Email, Username: p.DisplayName}, nil
		},
	}

	svc := &services.Service{
		ID:          serviceID,
		Name:        "Spotify",
		Description: "React to playback and library changes",
		Version:     "1.0.0",
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector:     connector,
		},
		Actions: []services.ActionDefinition{
			{
				ID:          "track_saved",
				Name:        "Track saved to library",
				Description: "Triggers when a track is saved to the library",
				ConfigSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
				Metadata: services.ActionMetadata{
					Category:     "music",
					Tags:         []string{"library"},
					RequiresAuth: true,
				},
			},
			{
				ID:          "playback_started",
				Name:        "Playback started",
				Description: "Triggers when playback starts on any device",
				ConfigSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
				Metadata: services.ActionMetadata{
					Category:     "music",
					Tags:         []string{"playback"},
					RequiresAuth: true,
				},
			},
		},
		Reactions: []services.ReactionDefinition{
			{
				ID:          "add_to_playlist",
				Name:        "Add track to playlist",
				Description: "Adds a track to one of the user's playlists",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"playlist_id": {"type": "string"},
						"track_uri": {"type": "string"}
					},
					"required": ["playlist_id", "track_uri"]
				}`),
				Metadata: services.ReactionMetadata{
					Category:          "music",
					Tags:              []string{"playlist"},
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
			return nil, fmt.Errorf("no spotify token for user %d", userID)
		}
		return map[string]string{"access_token": token.AccessToken}, nil
	}

	return svc
}
