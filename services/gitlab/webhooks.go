package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"backend/database"
	"backend/services"

	"gorm.io/gorm"
)

const apiBase = "https://gitlab.com/api/v4"

type webhookManager struct {
	connector *services.Connector
}

type projectHook struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// EnsureWebhookForMapping registers a project hook for the mapping's event.
// GitLab happily creates duplicate hooks for the same URL, so an existing
// remote hook is looked up and adopted before creating a new one.
func (m *webhookManager) EnsureWebhookForMapping(db *gorm.DB, mapping *database.Mapping, userID uint, action services.ActionDefinition) error {
	project, err := targetFromConfig(mapping.ActionConfig, action.Metadata.TargetKey)
	if err != nil {
		return err
	}

	ingress := services.WebhookIngressURL(serviceID)
	event := action.Metadata.WebhookPattern

	var existing database.ExternalWebhook
	q := db.Where("user_id = ? AND service = ? AND target = ? AND events = ? AND is_active = ?",
		userID, serviceID, project, event, true).First(&existing)
	if q.Error == nil {
		log.Printf("Reusing active webhook %d for project %s", existing.ID, project)
		return nil
	}
	if !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return q.Error
	}

	token, err := m.connector.Token(db, userID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("no gitlab token for user %d", userID)
	}

	secret := services.WebhookSecret()
	remoteID, err := m.ensureRemoteHook(token.AccessToken, project, ingress, event, secret)
	if err != nil {
		return err
	}

	record := database.ExternalWebhook{
		UserId:     userID,
		Service:    serviceID,
		ExternalId: fmt.Sprintf("%d", remoteID),
		Target:     project,
		URL:        ingress,
		Secret:     secret,
		Events:     event,
		IsActive:   true,
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}
	log.Printf("Created webhook %d (remote %d) on project %s", record.ID, remoteID, project)
	return nil
}

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
		return fmt.Errorf("no gitlab token for user %d", userID)
	}

	path := fmt.Sprintf("/projects/%s/hooks/%s", url.PathEscape(record.Target), record.ExternalId)
	status, _, err := m.apiRequest(token.AccessToken, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("deleting hook %s on %s: status %d", record.ExternalId, record.Target, status)
	}

	return db.Delete(&record).Error
}

func (m *webhookManager) ensureRemoteHook(accessToken, project, ingress, event, secret string) (int64, error) {
	if existing, err := m.findRemoteHook(accessToken, project, ingress); err == nil && existing != nil {
		log.Printf("Adopting existing hook %d on project %s", existing.ID, project)
		return existing.ID, nil
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"url":   ingress,
		event:   true,
		"token": secret,
	})

	path := fmt.Sprintf("/projects/%s/hooks", url.PathEscape(project))
	status, body, err := m.apiRequest(accessToken, http.MethodPost, path, payload)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("creating hook on %s: status %d", project, status)
	}

	var created projectHook
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (m *webhookManager) findRemoteHook(accessToken, project, ingress string) (*projectHook, error) {
	path := fmt.Sprintf("/projects/%s/hooks", url.PathEscape(project))
	status, body, err := m.apiRequest(accessToken, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("listing hooks on %s: status %d", project, status)
	}

	var hooks []projectHook
	if err := json.Unmarshal(body, &hooks); err != nil {
		return nil, err
	}
	for i := range hooks {
		if hooks[i].URL == ingress {
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
	return raw, nil
}
