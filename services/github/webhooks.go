package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"backend/database"
	"backend/services"

	"gorm.io/gorm"
)

const apiBase = "https://api.github.com"

type webhookManager struct {
	connector *services.Connector
}

type hookConfig struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Secret      string `json:"secret,omitempty"`
}

type hook struct {
	ID     int64      `json:"id"`
	Events []string   `json:"events"`
	Active bool       `json:"active"`
	Config hookConfig `json:"config"`
}

// EnsureWebhookForMapping makes sure the repository named in the mapping
// config carries a hook pointing at our ingress. Re-uses an existing active
// record for the same repository and event, otherwise creates one remotely.
func (m *webhookManager) EnsureWebhookForMapping(db *gorm.DB, mapping *database.Mapping, userID uint, action services.ActionDefinition) error {
	repo, err := targetFromConfig(mapping.ActionConfig, action.Metadata.TargetKey)
	if err != nil {
		return err
	}

	url := services.WebhookIngressURL(serviceID)
	event := action.Metadata.WebhookPattern

	var existing database.ExternalWebhook
	q := db.Where("user_id = ? AND service = ? AND target = ? AND is_active = ?",
		userID, serviceID, repo, true).First(&existing)
	if q.Error == nil && containsEvent(existing.EventList(), event) {
		log.Printf("Reusing active webhook %d for %s", existing.ID, repo)
		return nil
	}
	if q.Error != nil && !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return q.Error
	}

	token, err := m.connector.Token(db, userID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("no github token for user %d", userID)
	}

	secret := services.WebhookSecret()
	remoteID, err := m.createRemoteHook(token.AccessToken, repo, url, event, secret)
	if err != nil {
		return err
	}

	record := database.ExternalWebhook{
		UserId:     userID,
		Service:    serviceID,
		ExternalId: fmt.Sprintf("%d", remoteID),
		Target:     repo,
		URL:        url,
		Secret:     secret,
		Events:     event,
		IsActive:   true,
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}
	log.Printf("Created webhook %d (remote %d) on %s", record.ID, remoteID, repo)
	return nil
}

// DeleteWebhook removes the remote hook and the local record. A remote 404
// means the hook is already gone and counts as success.
func (m *webhookManager) DeleteWebhook(db *gorm.DB, userID uint, webhookID uint) error {
	var record database.ExternalWebhook
	if err := db.Where("id = ? AND user_id = ?", webhookID, userID).First(&record).Error; err != nil {
		return err
	}

	token, err := m.connector.Token(db, userID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("no github token for user %d", userID)
	}

	path := fmt.Sprintf("/repos/%s/hooks/%s", record.Target, record.ExternalId)
	status, _, err := m.apiRequest(token.AccessToken, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("deleting hook %s on %s: status %d", record.ExternalId, record.Target, status)
	}

	return db.Delete(&record).Error
}

// createRemoteHook creates the hook, adopting an already existing one when
// the provider answers 422 (hook for that URL already present).
func (m *webhookManager) createRemoteHook(accessToken, repo, url, event, secret string) (int64, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"name":   "web",
		"active": true,
		"events": []string{event},
		"config": hookConfig{URL: url, ContentType: "json", Secret: secret},
	})

	path := fmt.Sprintf("/repos/%s/hooks", repo)
	status, body, err := m.apiRequest(accessToken, http.MethodPost, path, payload)
	if err != nil {
		return 0, err
	}

	switch status {
	case http.StatusCreated:
		var created hook
		if err := json.Unmarshal(body, &created); err != nil {
			return 0, err
		}
		return created.ID, nil
	case http.StatusUnprocessableEntity:
		existing, err := m.findRemoteHook(accessToken, repo, url)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, fmt.Errorf("hook creation on %s rejected and no existing hook found", repo)
		}
		log.Printf("Adopting existing hook %d on %s", existing.ID, repo)
		return existing.ID, nil
	default:
		return 0, fmt.Errorf("creating hook on %s: status %d", repo, status)
	}
}

func (m *webhookManager) findRemoteHook(accessToken, repo, url string) (*hook, error) {
	path := fmt.Sprintf("/repos/%s/hooks", repo)
	status, body, err := m.apiRequest(accessToken, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("listing hooks on %s: status %d", repo, status)
	}

	var hooks []hook
	if err := json.Unmarshal(body, &hooks); err != nil {
		return nil, err
	}
	for i := range hooks {
		if hooks[i].Config.URL == url {
			return &hooks[i], nil
		}
	}
	return nil, nil
}

func (m *webhookManager) apiRequest(accessToken, method, path string, payload []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func targetFromConfig(config json.RawMessage, key string) (string, error) {
	var values map[string]interface{}
	if err := json.Unmarshal(config, &values); err != nil {
		return "", fmt.Errorf("decoding mapping config: %w", err)
	}
	raw, ok := values[key].(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("mapping config has no %q", key)
	}
	if !strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q must be in owner/name form", key)
	}
	return raw, nil
}

func containsEvent(events []string, event string) bool {
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}
