package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/database"
	"backend/services"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(database.Tables...); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func pushService() *services.Service {
	return &services.Service{
		ID:          "github",
		Name:        "GitHub",
		Description: "test",
		Version:     "1.0.0",
		Actions: []services.ActionDefinition{
			{
				ID:   "push",
				Name: "Push",
				Metadata: services.ActionMetadata{
					WebhookPattern: "push",
					TargetKey:      "repository",
				},
			},
		},
		Reactions: []services.ReactionDefinition{},
	}
}

func ingressHandler(t *testing.T) (*WebhooksHandler, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	registry := services.NewRegistry()
	if err := registry.Register(pushService()); err != nil {
		t.Fatal(err)
	}
	return &WebhooksHandler{
		Registry: registry,
		Manager:  services.NewSubscriptionManager(registry),
	}, db
}

func deliver(t *testing.T, h *WebhooksHandler, db *gorm.DB, body, secret string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest("POST", "/webhooks/github", strings.NewReader(body))
	r.SetPathValue("service", "github")
	r.Header.Set("X-GitHub-Event", "push")
	r.Header.Set("X-GitHub-Delivery", "delivery-1")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(body))
		r.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}
	r = r.WithContext(context.WithValue(r.Context(), "db", db))

	w := httptest.NewRecorder()
	h.Ingress(w, r)
	return w
}

func TestIngressStoresEventForSubscriber(t *testing.T) {
	h, db := ingressHandler(t)

	if _, err := h.Manager.Subscribe(db, 1, "github"); err != nil {
		t.Fatal(err)
	}
	hook := database.ExternalWebhook{
		UserId: 1, Service: "github", Target: "o/r",
		URL: "https://example.test/webhooks/github",
		Secret: "s3cret", Events: "push", IsActive: true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatal(err)
	}

	w := deliver(t, h, db, `{"ref":"refs/heads/main"}`, "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var events []database.WebhookEvent
	db.Find(&events)
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	if events[0].ActionType != "github.push" || events[0].UserId != 1 {
		t.Errorf("stored wrong event: %+v", events[0])
	}
	if events[0].ExternalId != "delivery-1" {
		t.Errorf("expected delivery id to be recorded, got %q", events[0].ExternalId)
	}

	var after database.ExternalWebhook
	db.First(&after, hook.ID)
	if after.LastTriggeredAt == nil {
		t.Error("expected last_triggered_at to be stamped")
	}
}

func TestIngressDropsUnsubscribedUsers(t *testing.T) {
	h, db := ingressHandler(t)

	hook := database.ExternalWebhook{
		UserId: 1, Service: "github", Target: "o/r",
		URL: "https://example.test/webhooks/github",
		Secret: "s3cret", Events: "push", IsActive: true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatal(err)
	}

	w := deliver(t, h, db, `{}`, "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var count int64
	db.Model(&database.WebhookEvent{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no events for unsubscribed user, got %d", count)
	}
}

func TestIngressRejectsBadSignature(t *testing.T) {
	h, db := ingressHandler(t)

	if _, err := h.Manager.Subscribe(db, 1, "github"); err != nil {
		t.Fatal(err)
	}
	hook := database.ExternalWebhook{
		UserId: 1, Service: "github", Target: "o/r",
		URL: "https://example.test/webhooks/github",
		Secret: "s3cret", Events: "push", IsActive: true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatal(err)
	}

	w := deliver(t, h, db, `{}`, "wrong-secret")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIngressAcceptsEventWithoutListeners(t *testing.T) {
	h, db := ingressHandler(t)

	if _, err := h.Manager.Subscribe(db, 1, "github"); err != nil {
		t.Fatal(err)
	}
	// The hook listens for issues only, so an unsignable push delivery has
	// no candidate receiver and must be acknowledged rather than rejected.
	hook := database.ExternalWebhook{
		UserId: 1, Service: "github", Target: "o/r",
		URL: "https://example.test/webhooks/github",
		Secret: "s3cret", Events: "issues", IsActive: true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatal(err)
	}

	w := deliver(t, h, db, `{}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&database.WebhookEvent{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no events to be stored, got %d", count)
	}
}

func TestIngressUnknownService(t *testing.T) {
	h, db := ingressHandler(t)

	r := httptest.NewRequest("POST", "/webhooks/nope", strings.NewReader("{}"))
	r.SetPathValue("service", "nope")
	r = r.WithContext(context.WithValue(r.Context(), "db", db))

	w := httptest.NewRecorder()
	h.Ingress(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
